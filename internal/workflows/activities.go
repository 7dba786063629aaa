package workflows

import (
	"context"

	"go.temporal.io/sdk/temporal"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/usecases"
)

// GeocodeResult is the outcome of geocoding one name. A miss is not an error.
type GeocodeResult struct {
	Found    bool
	Location domain.GeoPoint
}

// DiscoveryActivities holds the activity implementations for the discovery workflow.
type DiscoveryActivities struct {
	Finder *usecases.PlaceFinder
}

// SuggestPlaceNames submits the discovery prompt and returns the raw completion.
func (a *DiscoveryActivities) SuggestPlaceNames(ctx context.Context, prompt string) (string, error) {
	text, err := a.Finder.Suggest(ctx, prompt)
	if err != nil {
		return "", temporal.NewNonRetryableApplicationError(err.Error(), "", nil)
	}
	return text, nil
}

// GeocodePlace resolves one suggested name.
func (a *DiscoveryActivities) GeocodePlace(ctx context.Context, name string) (GeocodeResult, error) {
	poi, ok := a.Finder.GeocodeOne(ctx, name)
	if !ok {
		return GeocodeResult{}, nil
	}
	return GeocodeResult{Found: true, Location: poi.Location}, nil
}
