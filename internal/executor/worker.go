package executor

import (
	"context"
	"fmt"

	"github.com/vk/synnia/internal/ctxlog"
)

// worker is the processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan <-chan string, errCh chan<- error, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for nodeID := range readyChan {
		workerLogger := logger.With("workerID", workerID)

		if ctx.Err() != nil {
			workerLogger.Debug("Skipping node, context is done.", "node", nodeID)
			errCh <- fmt.Errorf("node %s skipped: %w", nodeID, ctx.Err())
			continue
		}

		workerLogger.Debug("Worker picked up node for execution.", "node", nodeID)
		if err := e.Run(ctxlog.WithLogger(ctx, workerLogger), nodeID); err != nil {
			errCh <- fmt.Errorf("node %s: %w", nodeID, err)
			continue
		}
		workerLogger.Debug("Node execution succeeded.", "node", nodeID)
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}
