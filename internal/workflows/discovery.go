package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/core/ports"
	"github.com/sundaydrive/sundaydrive/internal/core/usecases"
)

// DiscoveryTaskQueue is the task queue the discovery worker polls.
const DiscoveryTaskQueue = "discovery-queue"

// DiscoveryInput is the input for the discovery workflow.
type DiscoveryInput struct {
	Prompt string
}

// DiscoveryWorkflow asks the model for place names and geocodes each one in
// parallel. Nothing is retried: a failed suggestion fails the workflow, and a
// name that does not geocode is left out.
func DiscoveryWorkflow(ctx workflow.Context, input DiscoveryInput) (*ports.DiscoveryResult, error) {
	logger := workflow.GetLogger(ctx)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: suggest names
	var raw string
	if err := workflow.ExecuteActivity(ctx, "SuggestPlaceNames", input.Prompt).Get(ctx, &raw); err != nil {
		return nil, err
	}
	names := usecases.SplitPlaceNames(raw)
	logger.Info("model suggested places", "count", len(names))

	// Step 2: geocode all names at once, collect in model order
	futures := make([]workflow.Future, len(names))
	for i, name := range names {
		futures[i] = workflow.ExecuteActivity(ctx, "GeocodePlace", name)
	}

	result := &ports.DiscoveryResult{RawText: raw, Names: names, POIs: []domain.POI{}}
	for i, f := range futures {
		var r GeocodeResult
		if err := f.Get(ctx, &r); err != nil {
			logger.Warn("geocoding activity failed, skipping place", "name", names[i], "error", err)
			continue
		}
		if r.Found {
			result.POIs = append(result.POIs, domain.POI{Name: names[i], Location: r.Location})
		}
	}
	return result, nil
}
