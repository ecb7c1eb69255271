package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Lllllllleong/filingassembly/internal/gcp"
	"github.com/Lllllllleong/filingassembly/internal/models"
)

// MergeFunction holds dependencies for the merge-manager entry points. One
// instance serves every function of the process so they share one registry.
type MergeFunction struct {
	manager *MergeManager
	config  MergeConfig
	closers []io.Closer
}

// NewMergeFunction wires a MergeManager to the configured store. With
// PROJECT_ID set, job snapshots go to Firestore and are read back for keys
// this process has not seen; with WORKFLOW_ID also set, completed jobs start
// the delivery workflow.
func NewMergeFunction(ctx context.Context) (*MergeFunction, error) {
	storeConfig := LoadStoreConfig()
	store, err := NewFileStore(ctx, storeConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create file store: %w", err)
	}
	config := LoadMergeConfig()
	f := &MergeFunction{config: config}
	if c, ok := store.(io.Closer); ok {
		f.closers = append(f.closers, c)
	}

	var observers []JobObserver
	var recorder *gcp.JobRecorder
	if projectID := gcp.GetEnv("PROJECT_ID", ""); projectID != "" {
		firestoreClient, err := gcp.NewFirestoreClient(ctx, projectID)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		f.closers = append(f.closers, firestoreClient)
		recorder = gcp.NewJobRecorder(firestoreClient, gcp.GetEnv("FIRESTORE_COLLECTION", "mergeJobs"))
		observers = append(observers, recorder)

		if workflowID := gcp.GetEnv("WORKFLOW_ID", ""); workflowID != "" {
			notifier, err := gcp.NewWorkflowNotifier(ctx, projectID, gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"), workflowID)
			if err != nil {
				f.Close()
				return nil, err
			}
			f.closers = append(f.closers, notifier)
			observers = append(observers, notifier)
		}
	}

	f.manager = NewMergeManager(store, config, observers...)
	if recorder != nil {
		f.manager.SetJobLoader(recorder)
	}
	slog.Info("Merge manager initialized.", "storageBackend", storeConfig.Backend, "observers", len(observers), "parseTimeout", config.ParseTimeout.String())
	return f, nil
}

// Close releases the store and Google Cloud clients opened by
// NewMergeFunction.
func (f *MergeFunction) Close() error {
	var errs []error
	for i := len(f.closers) - 1; i >= 0; i-- {
		if err := f.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	f.closers = nil
	return errors.Join(errs...)
}

func validKey(key string) error {
	if sanitizeKey(key) == "" {
		return fmt.Errorf("%w: key must be set", ErrInvalidRequest)
	}
	return nil
}

// Queue replaces the merge job of req.Key.
func (f *MergeFunction) Queue(ctx context.Context, req *models.MergeQueueRequest) (*models.MergeJob, error) {
	if err := validKey(req.Key); err != nil {
		return nil, err
	}
	job := f.manager.AddToMergeQueue(ctx, req.Key, req.Files)
	return &job, nil
}

// Run merges the job of req.Key.
func (f *MergeFunction) Run(ctx context.Context, req *models.MergeKeyRequest) (*models.MergeResult, error) {
	if err := validKey(req.Key); err != nil {
		return nil, err
	}
	res, err := f.manager.MergeUserPDFs(ctx, req.Key)
	return &res, err
}

// Status reports the job of req.Key.
func (f *MergeFunction) Status(ctx context.Context, req *models.MergeKeyRequest) *models.MergeStatusResponse {
	job, ok := f.manager.LookupJob(ctx, req.Key)
	if !ok {
		return &models.MergeStatusResponse{Found: false}
	}
	return &models.MergeStatusResponse{Found: true, Job: &job}
}

// CleanupTemp removes the scratch area of req.Key.
func (f *MergeFunction) CleanupTemp(ctx context.Context, req *models.MergeKeyRequest) error {
	if err := validKey(req.Key); err != nil {
		return err
	}
	return f.manager.CleanupTempDocuments(ctx, req.Key)
}

// Sweep drops old jobs. Without an age in e the configured maximum age
// applies; an age of zero removes every job.
func (f *MergeFunction) Sweep(e models.SweepEvent) int {
	maxAge := f.config.MaxJobAge
	if e.MaxAgeHours != nil {
		maxAge = hoursToDuration(*e.MaxAgeHours)
	}
	return f.manager.CleanupOldJobs(maxAge)
}
