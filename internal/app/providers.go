package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aidash/server/internal/module/ai"
	"github.com/aidash/server/internal/module/auth"
	"github.com/aidash/server/internal/module/quota"
	"github.com/aidash/server/internal/shared/cache"
	"github.com/aidash/server/internal/shared/config"
	"github.com/aidash/server/internal/shared/database"
	"github.com/aidash/server/internal/shared/httpclient"
	"github.com/aidash/server/internal/shared/logger"
	"github.com/aidash/server/internal/shared/metrics"
	"github.com/aidash/server/internal/shared/ratelimit"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies holds all injected dependencies.
type Dependencies struct {
	Config     *config.Config
	DB         *gorm.DB
	Redis      goredis.UniversalClient
	HTTPClient *http.Client
	Limiter    ratelimit.Limiter
	Logger     *zap.Logger
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics

	// Quota
	Ledger         quota.Ledger
	Gate           *quota.Gate
	ResetScheduler *quota.ResetScheduler
	QuotaHandler   *quota.Handler

	// Auth
	AuthService *auth.Service
	AuthHandler *auth.Handler
	Resolver    *auth.Resolver

	// AI
	AIModule *ai.Module
}

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideDatabase,
	ProvideRedisClient,
	ProvideHTTPClient,
	ProvideRateLimiter,
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) *zap.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideRegistry creates the prometheus registry served on the metrics endpoint.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates the application metrics.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(cfg.Metrics.Namespace, reg)
}

// ProvideDatabase creates a database connection.
func ProvideDatabase(cfg *config.Config) (*gorm.DB, error) {
	return database.New(&cfg.Database)
}

// ProvideRedisClient creates a Redis client. Redis is optional unless it
// backs the usage ledger.
func ProvideRedisClient(cfg *config.Config, log *zap.Logger) (goredis.UniversalClient, error) {
	if cfg.Redis.Address == "" {
		return nil, nil
	}
	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		if cfg.Quota.Backend == quota.BackendRedis {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		log.Warn("redis connection failed, continuing without redis", zap.Error(err))
		return nil, nil
	}
	return client, nil
}

// ProvideHTTPClient creates the pooled client used for upstream calls.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	return httpclient.New(cfg.HTTPClient)
}

// ProvideRateLimiter uses Redis when available so limits hold across instances.
func ProvideRateLimiter(client goredis.UniversalClient) ratelimit.Limiter {
	if client != nil {
		return ratelimit.NewRedisLimiter(client)
	}
	return ratelimit.NewMemoryLimiter()
}

// ===== Quota Providers =====

// QuotaSet provides the usage ledger and gate.
var QuotaSet = wire.NewSet(
	ProvideLedger,
	ProvideGate,
	ProvideResetScheduler,
	ProvideQuotaHandler,
)

// ProvideLedger creates the configured usage ledger.
func ProvideLedger(cfg *config.Config, db *gorm.DB, client goredis.UniversalClient) (quota.Ledger, error) {
	return quota.NewLedger(cfg.Quota.Backend, db, client, cfg.Quota.RedisKeyPrefix)
}

// ProvideGate creates the quota gate.
func ProvideGate(cfg *config.Config, ledger quota.Ledger, log *zap.Logger, m *metrics.Metrics) *quota.Gate {
	return quota.NewGate(ledger, cfg.Quota.FreeLimit, log.Named("quota"), m)
}

// ProvideResetScheduler creates the usage reset scheduler.
func ProvideResetScheduler(cfg *config.Config, ledger quota.Ledger, log *zap.Logger, m *metrics.Metrics) *quota.ResetScheduler {
	return quota.NewResetScheduler(ledger, cfg.Quota.ResetSchedule, log, m)
}

// ProvideQuotaHandler creates the usage handler.
func ProvideQuotaHandler(gate *quota.Gate, identity quota.IdentityFunc) *quota.Handler {
	return quota.NewHandler(gate, identity)
}

// ===== Auth Providers =====

// AuthSet provides the identity module.
var AuthSet = wire.NewSet(
	auth.NewUserRepository,
	ProvideJWTManager,
	auth.NewService,
	ProvideAuthHandler,
	ProvideResolver,
	ProvideIdentityFunc,
)

// ProvideJWTManager creates the session token manager.
func ProvideJWTManager(cfg *config.Config) *auth.JWTManager {
	return auth.NewJWTManager(&auth.JWTConfig{
		Secret:      cfg.Auth.JWTSecret,
		TokenExpiry: cfg.Auth.TokenExpiry,
		Issuer:      cfg.Auth.Issuer,
	})
}

// ProvideAuthHandler creates the auth handler.
func ProvideAuthHandler(cfg *config.Config, service *auth.Service, log *zap.Logger) *auth.Handler {
	return auth.NewHandler(service, auth.CookieConfig{
		MaxAge: cfg.Auth.CookieMaxAge,
		Secure: cfg.Auth.CookieSecure,
	}, log.Named("auth"))
}

// ProvideResolver creates the request identity resolver.
func ProvideResolver(cfg *config.Config) *auth.Resolver {
	return auth.NewResolver(cfg.Auth.RequireSession)
}

// ProvideIdentityFunc exposes the resolver to modules that must not import auth.
func ProvideIdentityFunc(resolver *auth.Resolver) quota.IdentityFunc {
	return resolver.Resolve
}

// ===== AI Providers =====

// AISet provides the AI proxy module.
var AISet = wire.NewSet(ProvideAIModule)

// ProvideAIModule creates the AI module behind the quota gate.
func ProvideAIModule(
	ctx context.Context,
	cfg *config.Config,
	gate *quota.Gate,
	identity quota.IdentityFunc,
	client *http.Client,
	log *zap.Logger,
	m *metrics.Metrics,
) (*ai.Module, error) {
	return ai.NewModule(ctx, &ai.Config{
		AI:         &cfg.AI,
		Storage:    &cfg.Storage,
		HTTPClient: client,
		Gate:       gate,
		Identity:   identity,
		Logger:     log.Named("ai"),
		Metrics:    m,
	})
}

// ProviderSet contains every provider of the application.
var ProviderSet = wire.NewSet(
	InfraSet,
	QuotaSet,
	AuthSet,
	AISet,
	wire.Struct(new(Dependencies), "*"),
)

// NewDependencies builds the dependency graph by hand, in the order the
// wire injector in wire.go resolves it.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg}
	deps.Logger = ProvideLogger(cfg)
	deps.Registry = ProvideRegistry()
	deps.Metrics = ProvideMetrics(cfg, deps.Registry)

	db, err := ProvideDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	deps.DB = db

	if deps.Redis, err = ProvideRedisClient(cfg, deps.Logger); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	deps.HTTPClient = ProvideHTTPClient(cfg)
	deps.Limiter = ProvideRateLimiter(deps.Redis)

	if deps.Ledger, err = ProvideLedger(cfg, deps.DB, deps.Redis); err != nil {
		deps.Close()
		return nil, fmt.Errorf("init usage ledger: %w", err)
	}
	deps.Gate = ProvideGate(cfg, deps.Ledger, deps.Logger, deps.Metrics)
	deps.ResetScheduler = ProvideResetScheduler(cfg, deps.Ledger, deps.Logger, deps.Metrics)

	users := auth.NewUserRepository(deps.DB)
	deps.AuthService = auth.NewService(users, ProvideJWTManager(cfg), deps.Logger.Named("auth"), deps.Metrics)
	deps.AuthHandler = ProvideAuthHandler(cfg, deps.AuthService, deps.Logger)
	deps.Resolver = ProvideResolver(cfg)
	identity := ProvideIdentityFunc(deps.Resolver)
	deps.QuotaHandler = ProvideQuotaHandler(deps.Gate, identity)

	if deps.AIModule, err = ProvideAIModule(ctx, cfg, deps.Gate, identity, deps.HTTPClient, deps.Logger, deps.Metrics); err != nil {
		deps.Close()
		return nil, fmt.Errorf("init ai module: %w", err)
	}

	return deps, nil
}

// Close releases connections held by the dependencies.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		_ = cache.Close(d.Redis)
	}
	if d.DB != nil {
		_ = database.Close(d.DB)
	}
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}
}
