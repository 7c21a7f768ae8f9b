package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(perMinute int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/submit", RateLimitByIP(perMinute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimitByIP(t *testing.T) {
	router := newLimitedRouter(3)

	status := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.RemoteAddr = ip + ":12345"
		router.ServeHTTP(w, req)
		return w.Code
	}

	// The bucket starts full with the per-minute burst.
	for i := 0; i < 3; i++ {
		if got := status("10.0.0.1"); got != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, got)
		}
	}
	if got := status("10.0.0.1"); got != http.StatusTooManyRequests {
		t.Fatalf("over-limit request: status = %d, want 429", got)
	}

	// Another client has its own bucket.
	if got := status("10.0.0.2"); got != http.StatusOK {
		t.Fatalf("second client: status = %d, want 200", got)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	router := newLimitedRouter(0)

	for i := 0; i < 50; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}
}
