package ai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aidash/server/internal/module/ai/adapter"
	"github.com/aidash/server/internal/module/ai/handler"
	"github.com/aidash/server/internal/module/ai/llm"
	"github.com/aidash/server/internal/module/ai/media"
	"github.com/aidash/server/internal/module/ai/prompt"
	"github.com/aidash/server/internal/module/ai/provider"
	"github.com/aidash/server/internal/module/quota"
	"github.com/aidash/server/internal/shared/config"
	"github.com/aidash/server/internal/shared/httpclient"
	"github.com/aidash/server/internal/shared/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Module represents the AI module.
type Module struct {
	healthMonitor *provider.HealthMonitor
	llmService    *llm.Service
	mediaService  *media.Service
	handlers      *handler.Handlers
	logger        *zap.Logger
}

// Config contains module configuration.
type Config struct {
	AI         *config.AIConfig
	Storage    *config.StorageConfig
	HTTPClient *http.Client

	// Gate charges every billable call before the upstream is contacted.
	Gate     handler.Gate
	Identity quota.IdentityFunc

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// NewModule creates a new AI module.
func NewModule(ctx context.Context, cfg *Config) (*Module, error) {
	if cfg.Gate == nil || cfg.Identity == nil {
		return nil, fmt.Errorf("ai module requires a quota gate and identity resolver")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := prompt.Default()
	if err != nil {
		return nil, err
	}

	healthMonitor := ProvideHealthMonitor(cfg)
	store, err := ProvideResultStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gemini := adapter.NewGeminiAdapter(httpclient.WithTimeout(cfg.HTTPClient, cfg.AI.Gemini.Timeout), adapter.GeminiConfig{
		BaseURL: cfg.AI.Gemini.BaseURL,
		APIKey:  cfg.AI.Gemini.APIKey,
		Model:   cfg.AI.Gemini.Model,
	})
	removeBG := adapter.NewRemoveBGAdapter(httpclient.WithTimeout(cfg.HTTPClient, cfg.AI.RemoveBG.Timeout), adapter.RemoveBGConfig{
		BaseURL: cfg.AI.RemoveBG.BaseURL,
		APIKey:  cfg.AI.RemoveBG.APIKey,
	})
	pollinations := adapter.NewPollinationsAdapter(adapter.PollinationsConfig{
		BaseURL: cfg.AI.Image.BaseURL,
		Width:   cfg.AI.Image.Width,
		Height:  cfg.AI.Image.Height,
	})

	if cfg.AI.Gemini.APIKey == "" {
		logger.Warn("gemini api key not set, chat capabilities will fail")
	}
	if cfg.AI.RemoveBG.APIKey == "" {
		logger.Warn("remove.bg api key not set, background removal will fail")
	}

	llmService := llm.NewService(gemini, catalog, healthMonitor, logger, cfg.Metrics)
	mediaService := media.NewService(pollinations, removeBG, store, healthMonitor, logger, cfg.Metrics)

	return &Module{
		healthMonitor: healthMonitor,
		llmService:    llmService,
		mediaService:  mediaService,
		handlers: handler.NewHandlers(
			cfg.Gate,
			cfg.Identity,
			llmService,
			mediaService,
			cfg.AI.MaxUploadBytes,
			logger,
		),
		logger: logger,
	}, nil
}

// ProvideHealthMonitor creates the upstream breakers.
func ProvideHealthMonitor(cfg *Config) *provider.HealthMonitor {
	monitor := provider.NewHealthMonitor(&provider.HealthMonitorConfig{
		FailureThreshold:    cfg.AI.FailureThreshold,
		Timeout:             cfg.AI.CircuitTimeout,
		Interval:            provider.DefaultHealthMonitorConfig().Interval,
		MaxHalfOpenRequests: 1,
	}, cfg.Logger, cfg.Metrics)
	monitor.Register(provider.UpstreamGemini, provider.UpstreamRemoveBG)
	return monitor
}

// ProvideResultStore returns the S3 store when a bucket is configured and
// inline data URLs otherwise.
func ProvideResultStore(ctx context.Context, cfg *Config) (media.ResultStore, error) {
	if cfg.Storage == nil || !cfg.Storage.Enabled() {
		return media.DataURLStore{}, nil
	}

	s3cfg := &media.S3Config{
		Endpoint:        cfg.Storage.Endpoint,
		Region:          cfg.Storage.Region,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		Bucket:          cfg.Storage.Bucket,
		PublicURL:       cfg.Storage.PublicURL,
	}
	client, err := media.NewS3Client(ctx, s3cfg)
	if err != nil {
		return nil, fmt.Errorf("init result store: %w", err)
	}
	return media.NewS3Store(client, s3cfg), nil
}

// RegisterRoutes registers AI routes.
func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.handlers.RegisterRoutes(r)
}

// HealthMonitor returns the upstream health monitor.
func (m *Module) HealthMonitor() *provider.HealthMonitor {
	return m.healthMonitor
}

// LLMService returns the LLM service.
func (m *Module) LLMService() *llm.Service {
	return m.llmService
}

// MediaService returns the media service.
func (m *Module) MediaService() *media.Service {
	return m.mediaService
}
