package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/Lllllllleong/filingassembly/internal/models"
)

// WorkflowNotifier starts a workflow execution for every completed merge job,
// handing over where the merged document was written.
type WorkflowNotifier struct {
	client *executions.Client
	parent string
}

// NewWorkflowNotifier creates a notifier for the given workflow.
func NewWorkflowNotifier(ctx context.Context, projectID, location, workflowID string) (*WorkflowNotifier, error) {
	if projectID == "" || workflowID == "" {
		return nil, fmt.Errorf("projectID and workflowID must be provided to create a workflow notifier")
	}
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowNotifier{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
	}, nil
}

// Close releases the underlying client.
func (n *WorkflowNotifier) Close() error {
	return n.client.Close()
}

// JobUpdated ignores every status but completed.
func (n *WorkflowNotifier) JobUpdated(ctx context.Context, job models.MergeJob) {
	if job.Status != models.StatusCompleted {
		return
	}
	logCtx := slog.With("key", job.Key, "jobId", job.ID)
	logCtx.Info("Triggering workflow.")
	argument, err := workflowArgument(job)
	if err != nil {
		logCtx.Error("Failed to marshal workflow payload", "error", err)
		return
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: n.parent,
		Execution: &executionspb.Execution{
			Argument: argument,
		},
	}
	if _, err := n.client.CreateExecution(ctx, req); err != nil {
		logCtx.Error("Failed to trigger workflow execution", "error", err)
	}
}

func workflowArgument(job models.MergeJob) (string, error) {
	payload := map[string]interface{}{
		"key":            job.Key,
		"jobId":          job.ID,
		"mergedFilePath": job.MergedFilePath,
		"totalPages":     job.TotalPages,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
