// Package media serves the image capabilities: prompt-to-image URLs and
// background removal.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/aidash/server/internal/module/ai/adapter"
	"github.com/aidash/server/internal/module/ai/provider"
	apperrors "github.com/aidash/server/internal/shared/errors"
	"github.com/aidash/server/internal/shared/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Capability metric labels.
const (
	CapabilityImage            = "image"
	CapabilityRemoveBackground = "remove-background"
)

// ImageURLBuilder builds image generation URLs.
type ImageURLBuilder interface {
	ImageURL(prompt string) string
}

// BackgroundRemover strips the background from an image.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, image []byte) ([]byte, error)
}

// Service provides media operations.
type Service struct {
	images        ImageURLBuilder
	remover       BackgroundRemover
	store         ResultStore
	healthMonitor *provider.HealthMonitor
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

// NewService creates a new media service. A nil store returns results as data URLs.
func NewService(
	images ImageURLBuilder,
	remover BackgroundRemover,
	store ResultStore,
	healthMonitor *provider.HealthMonitor,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Service {
	if store == nil {
		store = DataURLStore{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		images:        images,
		remover:       remover,
		store:         store,
		healthMonitor: healthMonitor,
		logger:        logger,
		metrics:       m,
	}
}

// GenerateImage returns the URL that renders prompt.
func (s *Service) GenerateImage(_ context.Context, prompt string) (string, error) {
	start := time.Now()
	location := s.images.ImageURL(prompt)
	s.record(provider.UpstreamPollinations, CapabilityImage, nil, time.Since(start))
	return location, nil
}

// RemoveBackground removes the background of image and returns a URL for
// the resulting PNG.
func (s *Service) RemoveBackground(ctx context.Context, userID string, image []byte) (string, error) {
	start := time.Now()
	var out []byte
	err := s.healthMonitor.Execute(provider.UpstreamRemoveBG, func() error {
		var err error
		out, err = s.remover.RemoveBackground(ctx, image)
		return err
	})
	s.record(provider.UpstreamRemoveBG, CapabilityRemoveBackground, err, time.Since(start))

	if err != nil {
		s.logger.Error("background removal failed", zap.String("user_id", userID), zap.Error(err))
		var upstreamErr *adapter.Error
		message := ""
		if errors.As(err, &upstreamErr) {
			message = upstreamErr.Message
		}
		return "", apperrors.UpstreamFailure(message, err)
	}

	key := fmt.Sprintf("removed-backgrounds/%s/%s.png", url.PathEscape(userID), uuid.NewString())
	location, err := s.store.Save(ctx, key, "image/png", out)
	if err != nil {
		s.logger.Error("store processed image", zap.String("key", key), zap.Error(err))
		return "", apperrors.Internal("", err)
	}
	return location, nil
}

func (s *Service) record(upstream, capability string, err error, d time.Duration) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordAIRequest(upstream, capability, status, d)
}
