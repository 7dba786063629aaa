package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/ports"
	"github.com/sundaydrive/sundaydrive/internal/pkg/metrics"
)

// GeocodingService resolves names through an ordered chain of providers with a
// read-through cache in front. It satisfies ports.Geocoder.
type GeocodingService struct {
	providers  []ports.Geocoder
	cache      ports.CacheService
	ttlSeconds int
}

// NewGeocodingService creates a GeocodingService. cache may be nil.
func NewGeocodingService(cache ports.CacheService, ttlSeconds int, providers ...ports.Geocoder) *GeocodingService {
	if ttlSeconds <= 0 {
		ttlSeconds = 86400
	}
	return &GeocodingService{providers: providers, cache: cache, ttlSeconds: ttlSeconds}
}

// Name identifies the chain in logs and metrics.
func (s *GeocodingService) Name() string {
	return "chain"
}

// Geocode returns the first provider's best match for name.
func (s *GeocodingService) Geocode(ctx context.Context, name string) (*domain.GeoPoint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNotFound
	}

	cacheKey := "geocode:" + strings.ToLower(name)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var pt domain.GeoPoint
			if err := json.Unmarshal(data, &pt); err == nil {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				return &pt, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	var lastErr error
	for _, p := range s.providers {
		pt, err := p.Geocode(ctx, name)
		if err == nil && pt != nil {
			if s.cache != nil {
				if data, err := json.Marshal(pt); err == nil {
					_ = s.cache.Set(ctx, cacheKey, data, s.ttlSeconds)
				}
			}
			return pt, nil
		}
		if err == nil || errors.Is(err, domain.ErrNotFound) {
			metrics.GeocodeMisses.WithLabelValues(p.Name()).Inc()
			continue
		}
		metrics.GeocodeFailures.WithLabelValues(p.Name()).Inc()
		slog.Warn("geocoder failed", "provider", p.Name(), "name", name, "error", err)
		lastErr = fmt.Errorf("%s: %w", p.Name(), err)
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, domain.ErrNotFound
}
