package acceptance

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	"github.com/mbayedev/immoka/internal/app"
	"github.com/mbayedev/immoka/internal/config"
	"github.com/mbayedev/immoka/pkg/database"
	"github.com/mbayedev/immoka/pkg/observability"
)

// TestApp runs the real application wiring against test infrastructure,
// listening on a random local port.
type TestApp struct {
	Config   *config.Config
	App      *app.App
	Server   *http.Server
	Listener net.Listener
	BaseURL  string
	Logger   *zap.Logger

	infra *testInfrastructure
}

// NewTestApp creates a new test application instance
func NewTestApp(postgres *database.Postgres, redis *database.Redis) (*TestApp, error) {
	cfg := &config.Config{
		App: config.AppConfig{
			Name:        "Immoka",
			FrontendURL: "http://localhost:4200",
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "0",
			ReadTimeout:  config.Duration{Duration: 15 * time.Second},
			WriteTimeout: config.Duration{Duration: 15 * time.Second},
		},
		JWT: config.JWTConfig{
			AccessSecret:       "test-access-secret-that-is-at-least-32-chars",
			RefreshSecret:      "test-refresh-secret-that-is-at-least-32-chars",
			AccessTokenExpiry:  config.Duration{Duration: 15 * time.Minute},
			RefreshTokenExpiry: config.Duration{Duration: 7 * 24 * time.Hour},
		},
		SMTP: config.SMTPConfig{
			Host: "localhost",
			Port: 2525,
			From: "noreply@immoka.local",
		},
		GED: config.GEDConfig{
			APIURL: "http://localhost:8000",
		},
		Security: config.SecurityConfig{
			BCryptCost:        4, // keep hashing cheap in tests
			RateLimitRequests: 100,
			RateLimitWindow:   config.Duration{Duration: 1 * time.Minute},
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:4200"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		},
		Env: "test",
	}

	gin.SetMode(gin.TestMode)

	logger, err := observability.InitLogger("test")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	meterProvider, metricsHandler, err := observability.InitTelemetry("immoka-api-test")
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	infra := &testInfrastructure{
		postgres:       postgres,
		redis:          redis,
		logger:         logger,
		metricsHandler: metricsHandler,
		meterProvider:  meterProvider,
	}

	application, err := app.NewApp(infra, cfg)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to build app: %w", err)
	}

	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	addr := listener.Addr().(*net.TCPAddr)
	baseURL := fmt.Sprintf("http://localhost:%d", addr.Port)

	srv := &http.Server{
		Handler:      application.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	testApp := &TestApp{
		Config:   cfg,
		App:      application,
		Server:   srv,
		Listener: listener,
		BaseURL:  baseURL,
		Logger:   logger,
		infra:    infra,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("Test server stopped", zap.Error(err))
		}
	}()
	time.Sleep(100 * time.Millisecond)

	return testApp, nil
}

// Close stops the test server.
func (a *TestApp) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.Server.Shutdown(ctx); err != nil {
		return err
	}
	return a.infra.Shutdown(ctx)
}

// testInfrastructure wraps externally managed connections; Shutdown leaves
// them open so the suite can keep using them between tests.
type testInfrastructure struct {
	postgres       *database.Postgres
	redis          *database.Redis
	logger         *zap.Logger
	metricsHandler http.Handler
	meterProvider  *metric.MeterProvider
}

var _ app.Infrastructure = &testInfrastructure{}

func (i *testInfrastructure) Postgres() *database.Postgres {
	return i.postgres
}

func (i *testInfrastructure) Redis() *database.Redis {
	return i.redis
}

func (i *testInfrastructure) Logger() *zap.Logger {
	return i.logger
}

func (i *testInfrastructure) MetricsHandler() http.Handler {
	return i.metricsHandler
}

func (i *testInfrastructure) MeterProvider() *metric.MeterProvider {
	return i.meterProvider
}

func (i *testInfrastructure) Shutdown(ctx context.Context) error {
	if i.logger != nil {
		_ = i.logger.Sync()
	}
	if i.meterProvider != nil {
		_ = observability.Shutdown(ctx, i.meterProvider, i.logger)
	}
	return nil
}
