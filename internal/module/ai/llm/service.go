package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aidash/server/internal/module/ai/adapter"
	"github.com/aidash/server/internal/module/ai/prompt"
	"github.com/aidash/server/internal/module/ai/provider"
	apperrors "github.com/aidash/server/internal/shared/errors"
	"github.com/aidash/server/internal/shared/metrics"
	"go.uber.org/zap"
)

// ErrUnknownCapability is returned for a capability missing from the catalog.
var ErrUnknownCapability = errors.New("unknown capability")

// Service runs chat capabilities against the Gemini upstream.
type Service struct {
	generator     Generator
	catalog       *prompt.Catalog
	healthMonitor *provider.HealthMonitor
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

// NewService creates a new LLM service.
func NewService(
	generator Generator,
	catalog *prompt.Catalog,
	healthMonitor *provider.HealthMonitor,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		generator:     generator,
		catalog:       catalog,
		healthMonitor: healthMonitor,
		logger:        logger,
		metrics:       m,
	}
}

// Chat performs a chat completion. Upstream failures are returned as an
// UPSTREAM_FAILURE AppError carrying the capability's error message; an
// empty reply is replaced by the capability's fallback.
func (s *Service) Chat(ctx context.Context, capability prompt.Capability, messages []adapter.Message) (string, error) {
	p, ok := s.catalog.Get(capability)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCapability, capability)
	}

	start := time.Now()
	var reply string
	err := s.healthMonitor.Execute(provider.UpstreamGemini, func() error {
		var err error
		reply, err = s.generator.Generate(ctx, p.System, messages)
		return err
	})
	s.record(capability, err, time.Since(start))

	if err != nil {
		s.logger.Error("chat upstream failed",
			zap.String("capability", string(capability)),
			zap.Error(err),
		)
		return "", apperrors.UpstreamFailure(p.Error, err)
	}

	if reply == "" {
		return p.Fallback, nil
	}
	return reply, nil
}

func (s *Service) record(capability prompt.Capability, err error, d time.Duration) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordAIRequest(provider.UpstreamGemini, string(capability), status, d)
}
