package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Lllllllleong/filingassembly/internal/models"
	"github.com/Lllllllleong/filingassembly/internal/pdf"
	"github.com/google/uuid"
)

const (
	noPendingJobMessage = "no pending merge job"
	errInterruptedRun   = "merge run interrupted by a restart"
)

var unsafeKeyRegex = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// JobObserver is told about every status change of a merge job. Observers
// must not block for long; their failures are theirs to log.
type JobObserver interface {
	JobUpdated(ctx context.Context, job models.MergeJob)
}

// JobLoader recovers the last recorded job of a key. It returns a nil job
// when nothing was recorded.
type JobLoader interface {
	Load(ctx context.Context, key string) (*models.MergeJob, error)
}

// MergeConfig holds the tunables of the merge manager.
type MergeConfig struct {
	ScratchDir   string
	ParseTimeout time.Duration
	Concurrency  int
	MaxJobAge    time.Duration
}

// DefaultMergeConfig mirrors the environment defaults of LoadMergeConfig.
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{
		ScratchDir:   "temp",
		ParseTimeout: 30 * time.Second,
		Concurrency:  4,
		MaxJobAge:    24 * time.Hour,
	}
}

// MergeManager owns one merge job per key and runs merges against a FileStore.
// It is safe for concurrent use; two runs for the same key never overlap.
type MergeManager struct {
	store     FileStore
	config    MergeConfig
	observers []JobObserver
	loader    JobLoader
	now       func() time.Time

	mu   sync.Mutex
	jobs map[string]*models.MergeJob
}

// NewMergeManager creates a manager with an empty registry.
func NewMergeManager(store FileStore, config MergeConfig, observers ...JobObserver) *MergeManager {
	if config.ScratchDir == "" {
		config.ScratchDir = "temp"
	}
	return &MergeManager{
		store:     store,
		config:    config,
		observers: observers,
		now:       time.Now,
		jobs:      make(map[string]*models.MergeJob),
	}
}

// SetJobLoader makes the manager fall back to l for keys missing from its
// registry, so jobs survive a restart of the process.
func (m *MergeManager) SetJobLoader(l JobLoader) {
	m.loader = l
}

// AddToMergeQueue replaces whatever job key had with a fresh pending one.
func (m *MergeManager) AddToMergeQueue(ctx context.Context, key string, files []models.MergeFile) models.MergeJob {
	now := m.now()
	job := &models.MergeJob{
		ID:        uuid.NewString(),
		Key:       key,
		Files:     append([]models.MergeFile(nil), files...),
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	if prev, ok := m.jobs[key]; ok {
		slog.Info("Replacing existing merge job.", "key", key, "previousJobId", prev.ID, "previousStatus", prev.Status)
	}
	m.jobs[key] = job
	snapshot := job.Clone()
	m.mu.Unlock()

	slog.Info("Merge job queued.", "key", key, "jobId", job.ID, "fileCount", len(files))
	m.notify(ctx, snapshot)
	return snapshot
}

// GetJobStatus returns a copy of the job for key. The boolean is false when
// key has no job.
func (m *MergeManager) GetJobStatus(key string) (models.MergeJob, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[key]
	if !ok {
		return models.MergeJob{}, false
	}
	return job.Clone(), true
}

// LookupJob is GetJobStatus after recovering key from the JobLoader, if any.
func (m *MergeManager) LookupJob(ctx context.Context, key string) (models.MergeJob, bool) {
	m.rehydrate(ctx, key)
	return m.GetJobStatus(key)
}

// MergeUserPDFs runs the pending or failed job for key. Inputs that are
// missing or unreadable are skipped with a diagnostic; the run fails only
// when no input contributed a page or the output cannot be written.
func (m *MergeManager) MergeUserPDFs(ctx context.Context, key string) (models.MergeResult, error) {
	logCtx := slog.With("key", key)

	m.rehydrate(ctx, key)
	job, snapshot, err := m.claim(key)
	if err != nil {
		logCtx.Warn("Merge run rejected.", "error", err)
		return models.MergeResult{Message: err.Error(), Status: models.StatusProcessing}, err
	}
	if job == nil {
		logCtx.Info("No pending merge job.")
		return models.MergeResult{Message: noPendingJobMessage, Status: snapshot.Status}, nil
	}
	logCtx = logCtx.With("jobId", snapshot.ID, "attempt", snapshot.Attempts)
	logCtx.Info("Merge job processing.", "fileCount", len(snapshot.Files))
	m.notify(ctx, snapshot)

	files := sortMergeFiles(snapshot.Files)
	if len(files) == 0 {
		return m.handleFailure(ctx, logCtx, job, nil, ErrNoValidContent)
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.FilePath
	}
	var (
		parts      [][]byte
		totalPages int
		diags      []Diagnostic
	)
	for i, r := range loadSources(ctx, m.store, paths, m.config.ParseTimeout, m.config.Concurrency) {
		if r.err != nil {
			logCtx.Warn("Skipping merge input.", "path", paths[i], "type", files[i].Type, "error", r.err)
			diags = append(diags, Diagnostic{Path: paths[i], Err: r.err})
			continue
		}
		parts = append(parts, r.src.data)
		totalPages += r.src.pages
	}
	if totalPages == 0 {
		return m.handleFailure(ctx, logCtx, job, diags, ErrNoValidContent)
	}

	merged, err := pdf.Merge(parts)
	if err != nil {
		return m.handleFailure(ctx, logCtx, job, diags, fmt.Errorf("%w: %v", ErrSerialization, err))
	}
	outPath := mergedFilePath(files[0].FilePath, key, m.now())
	if err := m.store.WriteFile(ctx, outPath, merged); err != nil {
		return m.handleFailure(ctx, logCtx, job, diags, fmt.Errorf("%w: failed to write %s: %v", ErrSerialization, outPath, err))
	}

	final, applied := m.finish(job, func(j *models.MergeJob) {
		j.Status = models.StatusCompleted
		j.MergedFilePath = outPath
		j.TotalPages = totalPages
		j.MergedFiles = len(parts)
		j.Diagnostics = diagnosticStrings(diags)
		j.Error = ""
	})
	if applied {
		m.notify(ctx, final)
	} else {
		logCtx.Warn("Merge job was replaced while running; result not recorded.")
	}
	logCtx.Info("Merge job completed.", "mergedFilePath", outPath, "totalPages", totalPages, "mergedFiles", len(parts), "skipped", len(diags))

	return models.MergeResult{
		Success:        true,
		Message:        fmt.Sprintf("merged %d of %d files", len(parts), len(files)),
		Status:         models.StatusCompleted,
		MergedFilePath: outPath,
		TotalPages:     totalPages,
		MergedFiles:    len(parts),
		Diagnostics:    diagnosticStrings(diags),
	}, nil
}

// CleanupOldJobs removes every job older than maxAge and reports how many
// went. A non-positive maxAge removes all jobs.
func (m *MergeManager) CleanupOldJobs(maxAge time.Duration) int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, job := range m.jobs {
		if maxAge <= 0 || now.Sub(job.CreatedAt) > maxAge {
			delete(m.jobs, key)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("Old merge jobs removed.", "removed", removed, "remaining", len(m.jobs), "maxAge", maxAge.String())
	}
	return removed
}

// CleanupTempDocuments deletes the scratch area of key. Everything else
// stored under key, merged outputs included, is left alone.
func (m *MergeManager) CleanupTempDocuments(ctx context.Context, key string) error {
	safe := sanitizeKey(key)
	if safe == "" {
		return fmt.Errorf("invalid key %q", key)
	}
	scratch := path.Join(safe, m.config.ScratchDir)
	if err := m.store.RemoveAll(ctx, scratch); err != nil {
		slog.Error("Failed to remove scratch documents", "key", key, "path", scratch, "error", err)
		return fmt.Errorf("failed to remove %s: %w", scratch, err)
	}
	slog.Info("Scratch documents removed.", "key", key, "path", scratch)
	return nil
}

// claim moves the job for key to processing. It returns a nil job when there
// is nothing to run.
func (m *MergeManager) claim(key string) (*models.MergeJob, models.MergeJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[key]
	if !ok {
		return nil, models.MergeJob{}, nil
	}
	switch job.Status {
	case models.StatusProcessing:
		return nil, job.Clone(), fmt.Errorf("%w: job %s", ErrMergeInProgress, job.ID)
	case models.StatusCompleted:
		return nil, job.Clone(), nil
	}
	job.Status = models.StatusProcessing
	job.Attempts++
	job.Error = ""
	job.Diagnostics = nil
	job.UpdatedAt = m.now()
	return job, job.Clone(), nil
}

// rehydrate registers the recorded job of key when the registry has none. A
// job recorded as processing lost its run with the previous process and comes
// back as failed so it can be retried. Jobs past MaxJobAge stay swept.
func (m *MergeManager) rehydrate(ctx context.Context, key string) {
	if m.loader == nil {
		return
	}
	m.mu.Lock()
	_, ok := m.jobs[key]
	m.mu.Unlock()
	if ok {
		return
	}

	job, err := m.loader.Load(ctx, key)
	if err != nil {
		slog.Error("Failed to load recorded merge job", "key", key, "error", err)
		return
	}
	if job == nil {
		return
	}
	if age := m.config.MaxJobAge; age > 0 && m.now().Sub(job.CreatedAt) > age {
		return
	}
	job.Key = key
	if job.Status == models.StatusProcessing {
		job.Status = models.StatusFailed
		job.Error = errInterruptedRun
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[key]; ok {
		return
	}
	m.jobs[key] = job
	slog.Info("Merge job recovered.", "key", key, "jobId", job.ID, "status", job.Status)
}

// finish applies update to job if the registry still holds it.
func (m *MergeManager) finish(job *models.MergeJob, update func(*models.MergeJob)) (models.MergeJob, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.jobs[job.Key] != job {
		return models.MergeJob{}, false
	}
	update(job)
	job.UpdatedAt = m.now()
	return job.Clone(), true
}

func (m *MergeManager) handleFailure(ctx context.Context, logCtx *slog.Logger, job *models.MergeJob, diags []Diagnostic, cause error) (models.MergeResult, error) {
	logCtx.Error("Merge job failed", "error", cause, "skipped", len(diags))
	final, applied := m.finish(job, func(j *models.MergeJob) {
		j.Status = models.StatusFailed
		j.Error = cause.Error()
		j.Diagnostics = diagnosticStrings(diags)
	})
	if applied {
		m.notify(ctx, final)
	}
	return models.MergeResult{
		Message:     cause.Error(),
		Status:      models.StatusFailed,
		Diagnostics: diagnosticStrings(diags),
	}, cause
}

func (m *MergeManager) notify(ctx context.Context, job models.MergeJob) {
	for _, o := range m.observers {
		o.JobUpdated(ctx, job)
	}
}

var fileTypeRank = map[models.FileType]int{
	models.FileTypeCourtDocument:   0,
	models.FileTypeApplicationForm: 1,
	models.FileTypeExhibit:         2,
	models.FileTypeOther:           3,
}

func typeRank(t models.FileType) int {
	if r, ok := fileTypeRank[t]; ok {
		return r
	}
	return fileTypeRank[models.FileTypeOther]
}

// sortMergeFiles orders files by type precedence, keeping the given order
// within a type.
func sortMergeFiles(files []models.MergeFile) []models.MergeFile {
	out := append([]models.MergeFile(nil), files...)
	sort.SliceStable(out, func(i, j int) bool {
		return typeRank(out[i].Type) < typeRank(out[j].Type)
	})
	return out
}

func mergedFilePath(firstInput, key string, at time.Time) string {
	name := fmt.Sprintf("merged_%s_%d.pdf", sanitizeKey(key), at.UnixMilli())
	dir := path.Dir(strings.TrimPrefix(firstInput, "/"))
	if dir == "." {
		return name
	}
	return path.Join(dir, name)
}

// sanitizeKey keeps key usable as a single path element.
func sanitizeKey(key string) string {
	return strings.Trim(unsafeKeyRegex.ReplaceAllString(key, "_"), "_")
}
