package gcp

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/filingassembly/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// JobRecorder mirrors merge jobs into a Firestore collection, one document
// per key holding the latest snapshot.
type JobRecorder struct {
	client     *firestore.Client
	collection string
}

func NewJobRecorder(client *firestore.Client, collection string) *JobRecorder {
	return &JobRecorder{client: client, collection: collection}
}

// JobUpdated writes job over the document of its key. Failures are logged
// and never reach the merge run.
func (r *JobRecorder) JobUpdated(ctx context.Context, job models.MergeJob) {
	if err := r.Save(ctx, job); err != nil {
		slog.Error("CRITICAL: Failed to record merge job status in Firestore.", "key", job.Key, "jobId", job.ID, "status", job.Status, "error", err)
	}
}

// Save replaces the stored snapshot for job.Key.
func (r *JobRecorder) Save(ctx context.Context, job models.MergeJob) error {
	if _, err := r.client.Collection(r.collection).Doc(job.Key).Set(ctx, job); err != nil {
		return fmt.Errorf("failed to save merge job %s: %w", job.ID, err)
	}
	return nil
}

// Load returns the stored snapshot for key, or nil when there is none.
func (r *JobRecorder) Load(ctx context.Context, key string) (*models.MergeJob, error) {
	snap, err := r.client.Collection(r.collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load merge job for %s: %w", key, err)
	}
	var job models.MergeJob
	if err := snap.DataTo(&job); err != nil {
		return nil, fmt.Errorf("failed to decode merge job for %s: %w", key, err)
	}
	return &job, nil
}
