package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "github.com/aidash/server/cmd/server/docs" // swagger docs
	"github.com/aidash/server/internal/module/auth"
	"github.com/aidash/server/internal/module/quota"
	"github.com/aidash/server/internal/shared/config"
	"github.com/aidash/server/internal/shared/database"
	"github.com/aidash/server/internal/shared/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// App represents the application.
type App struct {
	config     *config.Config
	configPath string
	deps       *Dependencies
	router     *gin.Engine
	logger     *zap.Logger
}

// Option configures an App.
type Option func(*App)

// WithConfigPath enables hot reload of the config file at path.
func WithConfigPath(path string) Option {
	return func(a *App) { a.configPath = path }
}

// New creates a new application instance.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	deps, err := NewDependencies(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		config: cfg,
		deps:   deps,
		logger: deps.Logger,
	}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.Migrate(); err != nil {
		deps.Close()
		return nil, err
	}

	app.router = app.setupRouter()
	app.registerRoutes()

	return app, nil
}

// Migrate creates or updates the application tables.
func (a *App) Migrate() error {
	return database.Migrate(a.deps.DB, &auth.User{}, &quota.UsageRecord{})
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	// Set Gin mode based on environment
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Apply global middleware
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = a.config.Server.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = append(corsConfig.ExposeHeaders, quota.HeaderQuotaLimit, quota.HeaderQuotaRemaining)
	r.Use(middleware.CORS(corsConfig))
	if a.config.Metrics.Enabled {
		r.Use(middleware.Metrics(a.deps.Metrics))
	}

	// Health check endpoint
	r.GET("/health", a.health)

	if a.config.Metrics.Enabled {
		r.GET(a.config.Metrics.Path, gin.WrapH(promhttp.HandlerFor(a.deps.Registry, promhttp.HandlerOpts{})))
	}

	// Swagger documentation endpoint
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	return r
}

// registerRoutes registers routes for all modules.
func (a *App) registerRoutes() {
	api := a.router.Group("/api")
	if a.config.RateLimit.Enabled {
		api.Use(middleware.RateLimit(a.deps.Limiter, middleware.RateLimitConfig{
			Limit:   a.config.RateLimit.Limit,
			Window:  a.config.RateLimit.Window,
			Logger:  a.logger,
			Metrics: a.deps.Metrics,
		}))
	}

	// Every route may act for a session user; only protected ones demand it.
	api.Use(auth.Identity(a.deps.AuthService, false))
	protected := api.Group("", auth.Identity(a.deps.AuthService, true))

	a.deps.AuthHandler.RegisterRoutes(api)
	a.deps.AuthHandler.RegisterProtectedRoutes(protected)
	a.deps.QuotaHandler.RegisterRoutes(api)
	a.deps.AIModule.RegisterRoutes(api)
}

func (a *App) health(c *gin.Context) {
	status := "ok"
	if err := a.ping(c.Request.Context()); err != nil {
		a.logger.Warn("health check failed", zap.Error(err))
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"upstreams": a.deps.AIModule.HealthMonitor().AllHealthStatus(),
		"freeLimit": a.deps.Gate.Limit(),
	})
}

func (a *App) ping(ctx context.Context) error {
	sqlDB, err := a.deps.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if a.deps.Redis != nil {
		if err := a.deps.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Gate returns the quota gate.
func (a *App) Gate() *quota.Gate {
	return a.deps.Gate
}

// Run serves HTTP until ctx is done, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.deps.ResetScheduler.Start(ctx); err != nil {
		return err
	}
	if a.configPath != "" {
		go a.watchConfig(ctx)
	}

	srv := &http.Server{
		Addr:         a.config.Server.Address,
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server",
			zap.String("address", srv.Addr),
			zap.Int64("free_limit", a.deps.Gate.Limit()),
			zap.String("quota_backend", a.config.Quota.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	timeout := a.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	a.deps.ResetScheduler.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.logger.Info("server exited")
	return nil
}

// watchConfig applies free limit changes from the config file.
func (a *App) watchConfig(ctx context.Context) {
	watcher := config.NewWatcher(a.configPath, a.logger.Named("config"))
	err := watcher.Watch(ctx, func(cfg *config.Config) {
		a.deps.Gate.SetLimit(cfg.Quota.FreeLimit)
	})
	if err != nil {
		a.logger.Error("config watcher stopped", zap.Error(err))
	}
}

// Stop stops the application and releases resources.
func (a *App) Stop() {
	a.deps.ResetScheduler.Stop()
	a.deps.Close()
}
