package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Bowerbirds/internal/dto"
	"github.com/lshigami/Bowerbirds/internal/model"
	"github.com/lshigami/Bowerbirds/internal/repository"
	"github.com/lshigami/Bowerbirds/internal/service"
)

const userContextKey = "current_user"

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user in the request context.
func RequireAuth(authService service.AuthService, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := authenticate(c, authService, userRepo)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "authentication required"})
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present but lets
// anonymous requests through. Public submission endpoints use this to tie
// responses of signed-in respondents to their account.
func OptionalAuth(authService service.AuthService, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := authenticate(c, authService, userRepo); ok {
			c.Set(userContextKey, user)
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, authService service.AuthService, userRepo repository.UserRepository) (*model.User, bool) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil, false
	}
	claims, err := authService.ParseToken(token)
	if err != nil {
		return nil, false
	}
	user, err := userRepo.FindByID(claims.UserID)
	if err != nil || !user.IsActive {
		return nil, false
	}
	return user, true
}

// CurrentUser returns the authenticated user stored by RequireAuth or
// OptionalAuth, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *model.User {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*model.User)
	if !ok {
		return nil
	}
	return user
}
