package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/mbayedev/immoka/internal/config"
	"github.com/mbayedev/immoka/internal/domain"
	"github.com/mbayedev/immoka/internal/email"
	"github.com/mbayedev/immoka/internal/ged"
	"github.com/mbayedev/immoka/internal/handler"
	"github.com/mbayedev/immoka/internal/repository"
	"github.com/mbayedev/immoka/internal/service"
	"github.com/mbayedev/immoka/internal/utils"
	"github.com/mbayedev/immoka/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	logger := infra.Logger()
	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry.Duration,
		cfg.JWT.RefreshTokenExpiry.Duration,
	)

	blacklistService := service.NewTokenBlacklistService(infra.Redis())
	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	gedClient := ged.NewClient(cfg.GED.APIURL, cfg.GED.APIKey)
	mailer := email.NewSMTPMailer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.User,
		cfg.SMTP.Password,
		cfg.SMTP.From,
		cfg.App.Name,
		cfg.App.FrontendURL,
	)

	authService := service.NewAuthService(
		repos.User,
		repos.Session,
		repos.Entreprise,
		jwtManager,
		blacklistService,
		gedClient,
		mailer,
		logger,
		cfg.Security.BCryptCost,
	)
	userService := service.NewUserService(repos.User, repos.Session, repos.Entreprise, gedClient, logger)
	annonceService := service.NewAnnonceService(repos.Annonce, gedClient, logger)

	authHandler := handler.NewAuthHandler(authService, logger, cfg.IsProduction())
	userHandler := handler.NewUserHandler(userService, logger)
	annonceHandler := handler.NewAnnonceHandler(annonceService, logger)

	var payloadCipher *handler.PayloadCipher
	if cfg.Security.EncryptKey != "" {
		cipher, err := handler.NewPayloadCipher(cfg.Security.EncryptKey)
		if err != nil {
			return nil, fmt.Errorf("failed to init payload cipher: %w", err)
		}
		payloadCipher = cipher
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("immoka-api"))
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))
	if payloadCipher != nil {
		router.Use(handler.EncryptionMiddleware(payloadCipher, logger))
	}

	setupRoutes(router, cfg, routeDeps{
		auth:        authHandler,
		user:        userHandler,
		annonce:     annonceHandler,
		authService: authService,
		rateLimiter: rateLimiter,
		health:      healthChecker,
		metrics:     infra.MetricsHandler(),
		logger:      logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

type routeDeps struct {
	auth        *handler.AuthHandler
	user        *handler.UserHandler
	annonce     *handler.AnnonceHandler
	authService service.AuthService
	rateLimiter *service.RateLimiter
	health      *HealthChecker
	metrics     http.Handler
	logger      *zap.Logger
}

func setupRoutes(router *gin.Engine, cfg *config.Config, deps routeDeps) {
	router.GET("/metrics", observability.PrometheusHandler(deps.metrics))
	router.GET("/health", deps.health.Handler)

	limited := handler.RateLimitMiddleware(
		deps.rateLimiter,
		deps.logger,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.IPBasedKey,
	)
	authenticated := handler.AuthGate(deps.authService, deps.logger)
	maybeAuthenticated := handler.OptionalAuthGate(deps.authService)
	masterOnly := handler.RequireRoles(deps.logger, domain.RoleMaster)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", limited, deps.auth.Register)
			auth.POST("/login", limited, deps.auth.Login)
			auth.POST("/refresh-token", deps.auth.Refresh)
			auth.GET("/verify-email/:token", deps.auth.VerifyEmail)
			auth.POST("/resend-activation", limited, deps.auth.ResendActivation)
			auth.POST("/logout", deps.auth.Logout)
			auth.POST("/logout-all", authenticated, deps.auth.LogoutAll)
			auth.GET("/sessions", authenticated, deps.auth.Sessions)
			auth.POST("/change-password", authenticated, deps.auth.ChangePassword)
		}

		users := api.Group("/users", authenticated)
		{
			users.GET("/profile", deps.user.GetProfile)
			users.PUT("/profile", deps.user.UpdateProfile)
			users.PUT("/profile/logo", deps.user.UpdateLogo)
			users.DELETE("/profile", deps.user.DeleteProfile)
		}

		admin := api.Group("/admin", authenticated, masterOnly)
		{
			admin.GET("/users", deps.user.ListUsers)
			admin.GET("/users/stats", deps.user.Stats)
			admin.GET("/users/:key", deps.user.GetUser)
			admin.PATCH("/users/:key/toggle-status", deps.user.ToggleStatus)
			admin.PATCH("/users/:key/role", deps.user.UpdateRole)
			admin.PUT("/users/:key", deps.user.UpdateUser)
			admin.DELETE("/users/:key", deps.user.DeleteUser)
			admin.PATCH("/entreprises/:key/toggle-block", deps.user.ToggleEntrepriseBlock)
		}

		annonces := api.Group("/annonces")
		{
			annonces.GET("", maybeAuthenticated, deps.annonce.List)
			annonces.POST("/add-annonce", authenticated, deps.annonce.Create)
			annonces.GET("/:reference", maybeAuthenticated, deps.annonce.Get)
			annonces.PATCH("/:reference/status", authenticated, deps.annonce.UpdateStatus)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
