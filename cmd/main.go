package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/Bowerbirds/config"
	"github.com/lshigami/Bowerbirds/database"
	_ "github.com/lshigami/Bowerbirds/docs" // Swagger docs - auto-generated
	adminctrl "github.com/lshigami/Bowerbirds/internal/controller/admin"
	userctrl "github.com/lshigami/Bowerbirds/internal/controller/user"
	"github.com/lshigami/Bowerbirds/internal/logger"
	"github.com/lshigami/Bowerbirds/internal/middleware"
	"github.com/lshigami/Bowerbirds/internal/model"
	"github.com/lshigami/Bowerbirds/internal/monitoring"
	"github.com/lshigami/Bowerbirds/internal/repository"
	"github.com/lshigami/Bowerbirds/internal/service"
	"github.com/lshigami/Bowerbirds/internal/storage"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Form Builder API
// @version 1.0
// @description API for building forms, collecting validated responses and analyzing the results.
// @contact.name API Support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	monitoring.Init()

	app := fx.New(
		// Core Application Components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			storage.NewObjectStore,
			NewGinEngine,
		),

		// Repositories Layer
		fx.Provide(
			repository.NewFormRepository,
			repository.NewResponseRepository,
			repository.NewTemplateRepository,
			repository.NewLibraryRepository,
			repository.NewUserRepository,
			repository.NewAuditRepository,
		),

		// Services Layer
		fx.Provide(
			service.NewAnswerValidator,
			service.NewFormService,
			service.NewSubmissionService,
			service.NewFormAdminService,
			service.NewResponseService,
			service.NewTemplateService,
			service.NewLibraryService,
			service.NewAuthService,
		),

		// API Controllers Layer
		fx.Provide(
			userctrl.NewFormController,
			userctrl.NewAuthController,
			userctrl.NewUploadController,
			adminctrl.NewFormAdminController,
			adminctrl.NewResponseAdminController,
			adminctrl.NewTemplateController,
			adminctrl.NewLibraryController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())
	r.Use(monitoring.MetricsMiddleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", monitoring.PrometheusHandler())

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	authService service.AuthService,
	userRepo repository.UserRepository,
	formCtrl *userctrl.FormController,
	authCtrl *userctrl.AuthController,
	uploadCtrl *userctrl.UploadController,
	formAdminCtrl *adminctrl.FormAdminController,
	responseAdminCtrl *adminctrl.ResponseAdminController,
	templateCtrl *adminctrl.TemplateController,
	libraryCtrl *adminctrl.LibraryController,
) {
	requireAuth := middleware.RequireAuth(authService, userRepo)
	optionalAuth := middleware.OptionalAuth(authService, userRepo)
	submitLimiter := middleware.RateLimitByIP(cfg.Submission.RateLimitPerMinute)

	// Public routes (prefixed with /api/v1)
	publicAPIGroup := router.Group("/api/v1")
	{
		publicAPIGroup.POST("/auth/register", authCtrl.Register)
		publicAPIGroup.POST("/auth/login", authCtrl.Login)

		publicAPIGroup.GET("/forms/:form_id", formCtrl.GetForm)
		publicAPIGroup.POST("/forms/:form_id/submissions", submitLimiter, optionalAuth, formCtrl.SubmitForm)
		publicAPIGroup.POST("/uploads", submitLimiter, optionalAuth, uploadCtrl.Upload)
	}

	// Owner routes (prefixed with /api/v1/admin, bearer token required)
	adminAPIGroup := router.Group("/api/v1/admin", requireAuth)
	{
		formsGroup := adminAPIGroup.Group("/forms")
		formsGroup.POST("", formAdminCtrl.CreateForm)
		formsGroup.GET("", formAdminCtrl.ListForms)
		formsGroup.GET("/:form_id", formAdminCtrl.GetForm)
		formsGroup.PATCH("/:form_id", formAdminCtrl.UpdateSettings)
		formsGroup.PUT("/:form_id/structure", formAdminCtrl.UpdateStructure)
		formsGroup.POST("/:form_id/publish", formAdminCtrl.Publish)
		formsGroup.POST("/:form_id/unpublish", formAdminCtrl.Unpublish)
		formsGroup.POST("/:form_id/archive", formAdminCtrl.Archive)
		formsGroup.DELETE("/:form_id", formAdminCtrl.DeleteForm)

		formsGroup.GET("/:form_id/responses", responseAdminCtrl.ListResponses)
		formsGroup.GET("/:form_id/responses/export", responseAdminCtrl.ExportResponses)
		formsGroup.GET("/:form_id/responses/:response_id", responseAdminCtrl.GetResponse)
		formsGroup.DELETE("/:form_id/responses/:response_id", responseAdminCtrl.DeleteResponse)
		formsGroup.GET("/:form_id/summary", responseAdminCtrl.GetSummary)

		templatesGroup := adminAPIGroup.Group("/templates")
		templatesGroup.GET("", templateCtrl.ListTemplates)
		templatesGroup.POST("", templateCtrl.CreateTemplate)
		templatesGroup.GET("/:template_id", templateCtrl.GetTemplate)
		templatesGroup.DELETE("/:template_id", templateCtrl.DeleteTemplate)
		templatesGroup.POST("/:template_id/instantiate", templateCtrl.InstantiateTemplate)

		libraryGroup := adminAPIGroup.Group("/library/questions")
		libraryGroup.GET("", libraryCtrl.ListQuestions)
		libraryGroup.POST("", libraryCtrl.AddQuestion)
		libraryGroup.GET("/:question_id", libraryCtrl.GetQuestion)
		libraryGroup.DELETE("/:question_id", libraryCtrl.DeleteQuestion)
	}

	// HTTP Server Setup and Lifecycle
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Form Builder API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Form{},
		&model.Section{},
		&model.Question{},
		&model.Response{},
		&model.Answer{},
		&model.FormTemplate{},
		&model.LibraryQuestion{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
