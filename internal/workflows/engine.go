package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/sundaydrive/sundaydrive/internal/core/ports"
)

// Finder implements ports.POIFinder by running DiscoveryWorkflow on a worker.
type Finder struct {
	client    client.Client
	taskQueue string
	timeout   time.Duration
}

// NewFinder creates a Finder.
func NewFinder(c client.Client, taskQueue string, timeout time.Duration) *Finder {
	if taskQueue == "" {
		taskQueue = DiscoveryTaskQueue
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Finder{client: c, taskQueue: taskQueue, timeout: timeout}
}

// FindPOIs starts a discovery workflow and waits for its result.
func (f *Finder) FindPOIs(ctx context.Context, req ports.DiscoveryRequest) (*ports.DiscoveryResult, error) {
	run, err := f.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                       "discovery-" + uuid.NewString(),
		TaskQueue:                f.taskQueue,
		WorkflowExecutionTimeout: f.timeout,
	}, DiscoveryWorkflow, DiscoveryInput{Prompt: req.Prompt})
	if err != nil {
		return nil, fmt.Errorf("start discovery workflow: %w", err)
	}

	var res ports.DiscoveryResult
	if err := run.Get(ctx, &res); err != nil {
		return nil, unwrapActivityError(err)
	}
	return &res, nil
}

// unwrapActivityError surfaces the activity's own message instead of the
// workflow and activity wrappers around it.
func unwrapActivityError(err error) error {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return errors.New(appErr.Error())
	}
	return err
}
