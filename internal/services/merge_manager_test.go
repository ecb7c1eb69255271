package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Lllllllleong/filingassembly/internal/filestore"
	"github.com/Lllllllleong/filingassembly/internal/models"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingObserver struct {
	mu       sync.Mutex
	statuses []models.JobStatus
}

func (o *recordingObserver) JobUpdated(_ context.Context, job models.MergeJob) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, job.Status)
}

func newTestManager(t *testing.T, observers ...JobObserver) (*MergeManager, *filestore.Local) {
	t.Helper()
	store := newTestStore(t)
	m := NewMergeManager(store, DefaultMergeConfig(), observers...)
	m.now = func() time.Time { return testNow }
	return m, store
}

func mergedOutputs(t *testing.T, root string) []string {
	t.Helper()
	var found []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), "merged_") {
			found = append(found, p)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir failed: %v", err)
	}
	return found
}

func TestMergeWithOnlyMissingFilesFails(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	m.AddToMergeQueue(ctx, "user-1", []models.MergeFile{
		{Type: models.FileTypeExhibit, FilePath: "user-1/missing.pdf"},
	})

	res, err := m.MergeUserPDFs(ctx, "user-1")
	if !errors.Is(err, ErrNoValidContent) {
		t.Fatalf("Expected ErrNoValidContent, got %v", err)
	}
	if res.Success || res.Status != models.StatusFailed {
		t.Errorf("Expected a failed result, got %+v", res)
	}

	job, ok := m.GetJobStatus("user-1")
	if !ok {
		t.Fatal("Expected the job to exist")
	}
	if job.Status != models.StatusFailed {
		t.Errorf("Expected status failed, got %s", job.Status)
	}
	if job.Error != "no valid pages to merge" {
		t.Errorf("Expected error %q, got %q", "no valid pages to merge", job.Error)
	}
	if job.Attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", job.Attempts)
	}
	if len(job.Diagnostics) != 1 {
		t.Errorf("Expected 1 diagnostic, got %v", job.Diagnostics)
	}
	if out := mergedOutputs(t, store.Root()); len(out) != 0 {
		t.Errorf("Expected no output to be written, got %v", out)
	}
}

func TestMergeSkipsMissingFile(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	putFile(t, store, "user-1/docs/two.pdf", fixturePDF(t, 2))
	m.AddToMergeQueue(ctx, "user-1", []models.MergeFile{
		{Type: models.FileTypeApplicationForm, FilePath: "user-1/docs/two.pdf"},
		{Type: models.FileTypeExhibit, FilePath: "user-1/docs/gone.pdf"},
	})

	res, err := m.MergeUserPDFs(ctx, "user-1")
	if err != nil {
		t.Fatalf("MergeUserPDFs failed: %v", err)
	}
	if !res.Success || res.TotalPages != 2 || res.MergedFiles != 1 {
		t.Errorf("Expected success with 2 pages from 1 file, got %+v", res)
	}

	job, _ := m.GetJobStatus("user-1")
	if job.Status != models.StatusCompleted {
		t.Errorf("Expected status completed, got %s", job.Status)
	}
	if job.TotalPages != 2 || job.MergedFiles != 1 {
		t.Errorf("Expected totalPages 2 and mergedFiles 1, got %d and %d", job.TotalPages, job.MergedFiles)
	}
	wantPath := fmt.Sprintf("user-1/docs/merged_user-1_%d.pdf", testNow.UnixMilli())
	if job.MergedFilePath != wantPath {
		t.Errorf("Expected merged path %s, got %s", wantPath, job.MergedFilePath)
	}
	data, err := store.ReadFile(ctx, job.MergedFilePath)
	if err != nil {
		t.Fatalf("Expected merged output to be readable: %v", err)
	}
	if got := pageCount(t, data); got != 2 {
		t.Errorf("Expected merged output with 2 pages, got %d", got)
	}
	if len(job.Diagnostics) != 1 || !strings.Contains(job.Diagnostics[0], "gone.pdf") {
		t.Errorf("Expected a diagnostic for gone.pdf, got %v", job.Diagnostics)
	}
}

func TestMergeConcatenatesAllValidFiles(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	putFile(t, store, "user-2/other.pdf", fixturePDF(t, 1))
	putFile(t, store, "user-2/court/doc.pdf", fixturePDF(t, 3))
	putFile(t, store, "user-2/exhibit.pdf", fixturePDF(t, 2))
	putFile(t, store, "user-2/broken.pdf", []byte("garbage"))
	m.AddToMergeQueue(ctx, "user-2", []models.MergeFile{
		{Type: models.FileTypeOther, FilePath: "user-2/other.pdf"},
		{Type: models.FileTypeExhibit, FilePath: "user-2/exhibit.pdf"},
		{Type: models.FileTypeExhibit, FilePath: "user-2/broken.pdf"},
		{Type: models.FileTypeCourtDocument, FilePath: "user-2/court/doc.pdf"},
	})

	res, err := m.MergeUserPDFs(ctx, "user-2")
	if err != nil {
		t.Fatalf("MergeUserPDFs failed: %v", err)
	}
	if res.TotalPages != 6 || res.MergedFiles != 3 {
		t.Errorf("Expected 6 pages from 3 files, got %d from %d", res.TotalPages, res.MergedFiles)
	}
	// The court document sorts first, so the output lands next to it.
	if !strings.HasPrefix(res.MergedFilePath, "user-2/court/merged_user-2_") {
		t.Errorf("Expected output in the court document's directory, got %s", res.MergedFilePath)
	}
	if len(res.Diagnostics) != 1 {
		t.Errorf("Expected 1 diagnostic, got %v", res.Diagnostics)
	}
}

func TestSortMergeFilesIsStable(t *testing.T) {
	in := []models.MergeFile{
		{Type: models.FileTypeOther, FilePath: "o1"},
		{Type: models.FileTypeExhibit, FilePath: "e1"},
		{Type: "unknown", FilePath: "u1"},
		{Type: models.FileTypeApplicationForm, FilePath: "a1"},
		{Type: models.FileTypeExhibit, FilePath: "e2"},
		{Type: models.FileTypeCourtDocument, FilePath: "c1"},
		{Type: models.FileTypeOther, FilePath: "o2"},
	}
	want := []string{"c1", "a1", "e1", "e2", "o1", "u1", "o2"}
	got := sortMergeFiles(in)
	for i, f := range got {
		if f.FilePath != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], f.FilePath)
		}
	}
	if in[0].FilePath != "o1" {
		t.Error("Expected the input slice to be left untouched")
	}
}

func TestMergeRetryAndCompletedNoop(t *testing.T) {
	observer := &recordingObserver{}
	m, store := newTestManager(t, observer)
	ctx := context.Background()
	m.AddToMergeQueue(ctx, "user-3", []models.MergeFile{
		{Type: models.FileTypeCourtDocument, FilePath: "user-3/late.pdf"},
	})

	if _, err := m.MergeUserPDFs(ctx, "user-3"); !errors.Is(err, ErrNoValidContent) {
		t.Fatalf("Expected ErrNoValidContent on first attempt, got %v", err)
	}
	putFile(t, store, "user-3/late.pdf", fixturePDF(t, 1))
	res, err := m.MergeUserPDFs(ctx, "user-3")
	if err != nil || !res.Success {
		t.Fatalf("Expected the retry to succeed, got %+v, %v", res, err)
	}
	job, _ := m.GetJobStatus("user-3")
	if job.Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", job.Attempts)
	}
	if job.Error != "" {
		t.Errorf("Expected the error to be cleared, got %q", job.Error)
	}

	res, err = m.MergeUserPDFs(ctx, "user-3")
	if err != nil {
		t.Fatalf("Expected no error for a completed job, got %v", err)
	}
	if res.Success || res.Message != "no pending merge job" {
		t.Errorf("Expected a no pending merge job result, got %+v", res)
	}
	job, _ = m.GetJobStatus("user-3")
	if job.Attempts != 2 {
		t.Errorf("Expected attempts to stay at 2, got %d", job.Attempts)
	}

	want := []models.JobStatus{
		models.StatusPending,
		models.StatusProcessing, models.StatusFailed,
		models.StatusProcessing, models.StatusCompleted,
	}
	if len(observer.statuses) != len(want) {
		t.Fatalf("Expected %d notifications, got %v", len(want), observer.statuses)
	}
	for i, s := range want {
		if observer.statuses[i] != s {
			t.Errorf("Notification %d: expected %s, got %s", i, s, observer.statuses[i])
		}
	}
}

func TestMergeWithoutJob(t *testing.T) {
	m, _ := newTestManager(t)
	res, err := m.MergeUserPDFs(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Success || res.Message != "no pending merge job" {
		t.Errorf("Expected a no pending merge job result, got %+v", res)
	}
	if _, ok := m.GetJobStatus("nobody"); ok {
		t.Error("Expected no job for an unknown key")
	}
}

func TestMergeRejectsRunInProgress(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	m.AddToMergeQueue(ctx, "user-4", []models.MergeFile{{Type: models.FileTypeOther, FilePath: "x.pdf"}})
	if job, _, err := m.claim("user-4"); err != nil || job == nil {
		t.Fatalf("Expected to claim the job, got %v, %v", job, err)
	}

	_, err := m.MergeUserPDFs(ctx, "user-4")
	if !errors.Is(err, ErrMergeInProgress) {
		t.Errorf("Expected ErrMergeInProgress, got %v", err)
	}
	job, _ := m.GetJobStatus("user-4")
	if job.Attempts != 1 {
		t.Errorf("Expected the rejected run not to count, got %d attempts", job.Attempts)
	}
}

func TestConcurrentRunsMergeOnce(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	putFile(t, store, "user-5/a.pdf", fixturePDF(t, 2))
	m.AddToMergeQueue(ctx, "user-5", []models.MergeFile{{Type: models.FileTypeExhibit, FilePath: "user-5/a.pdf"}})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := m.MergeUserPDFs(ctx, "user-5")
			if err != nil && !errors.Is(err, ErrMergeInProgress) {
				t.Errorf("Unexpected error: %v", err)
			}
			if res.Success {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("Expected exactly one successful merge, got %d", successes)
	}
	job, _ := m.GetJobStatus("user-5")
	if job.Attempts != 1 || job.Status != models.StatusCompleted {
		t.Errorf("Expected one completed attempt, got %d attempts with status %s", job.Attempts, job.Status)
	}
}

func TestAddToMergeQueueReplacesJob(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	first := m.AddToMergeQueue(ctx, "user-6", []models.MergeFile{{Type: models.FileTypeOther, FilePath: "gone.pdf"}})
	_, _ = m.MergeUserPDFs(ctx, "user-6")

	files := []models.MergeFile{{Type: models.FileTypeExhibit, FilePath: "new.pdf"}}
	second := m.AddToMergeQueue(ctx, "user-6", files)
	files[0].FilePath = "mutated.pdf"

	if second.ID == first.ID {
		t.Error("Expected a new job ID")
	}
	job, _ := m.GetJobStatus("user-6")
	if job.Status != models.StatusPending || job.Attempts != 0 || job.Error != "" {
		t.Errorf("Expected a fresh pending job, got %+v", job)
	}
	if job.Files[0].FilePath != "new.pdf" {
		t.Errorf("Expected the queued files to be copied, got %s", job.Files[0].FilePath)
	}
}

func TestCompletionIgnoredAfterReplacement(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	m.AddToMergeQueue(ctx, "user-7", nil)
	claimed, _, err := m.claim("user-7")
	if err != nil || claimed == nil {
		t.Fatalf("Expected to claim the job, got %v", err)
	}
	replacement := m.AddToMergeQueue(ctx, "user-7", nil)

	if _, applied := m.finish(claimed, func(j *models.MergeJob) { j.Status = models.StatusCompleted }); applied {
		t.Error("Expected completion of a replaced job to be ignored")
	}
	job, _ := m.GetJobStatus("user-7")
	if job.ID != replacement.ID || job.Status != models.StatusPending {
		t.Errorf("Expected the replacement to stay pending, got %+v", job)
	}
}

func TestGetJobStatusReturnsCopy(t *testing.T) {
	m, _ := newTestManager(t)
	m.AddToMergeQueue(context.Background(), "user-8", []models.MergeFile{{Type: models.FileTypeOther, FilePath: "a.pdf"}})
	job, _ := m.GetJobStatus("user-8")
	job.Files[0].FilePath = "changed.pdf"
	job.Status = models.StatusFailed

	again, _ := m.GetJobStatus("user-8")
	if again.Files[0].FilePath != "a.pdf" || again.Status != models.StatusPending {
		t.Errorf("Expected the registry to be unaffected, got %+v", again)
	}
}

func TestCleanupOldJobs(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	m.AddToMergeQueue(ctx, "old", nil)
	m.now = func() time.Time { return testNow.Add(2 * time.Hour) }
	m.AddToMergeQueue(ctx, "new", nil)
	m.now = func() time.Time { return testNow.Add(3 * time.Hour) }

	if n := m.CleanupOldJobs(1000 * time.Hour); n != 0 {
		t.Errorf("Expected a huge max age to remove nothing, removed %d", n)
	}
	if n := m.CleanupOldJobs(90 * time.Minute); n != 1 {
		t.Errorf("Expected 1 removal, got %d", n)
	}
	if _, ok := m.GetJobStatus("old"); ok {
		t.Error("Expected the old job to be gone")
	}
	if _, ok := m.GetJobStatus("new"); !ok {
		t.Error("Expected the recent job to remain")
	}
	if n := m.CleanupOldJobs(0); n != 1 {
		t.Errorf("Expected max age 0 to remove the remaining job, removed %d", n)
	}
}

func TestCleanupTempDocuments(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	putFile(t, store, "user-9/temp/upload-1.pdf", []byte("x"))
	putFile(t, store, "user-9/temp/nested/upload-2.pdf", []byte("x"))
	putFile(t, store, "user-9/merged_user-9_1.pdf", []byte("x"))

	if err := m.CleanupTempDocuments(ctx, "user-9"); err != nil {
		t.Fatalf("CleanupTempDocuments failed: %v", err)
	}
	if ok, _ := store.Exists(ctx, "user-9/temp/upload-1.pdf"); ok {
		t.Error("Expected scratch documents to be removed")
	}
	if ok, _ := store.Exists(ctx, "user-9/merged_user-9_1.pdf"); !ok {
		t.Error("Expected the merged output to survive")
	}
	if err := m.CleanupTempDocuments(ctx, "user-9"); err != nil {
		t.Errorf("Expected a second cleanup to succeed, got %v", err)
	}
	if err := m.CleanupTempDocuments(ctx, "../"); err == nil {
		t.Error("Expected an error for a key without usable characters")
	}
}

func TestMergedFilePath(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	cases := []struct {
		first string
		key   string
		want  string
	}{
		{first: "user-1/docs/a.pdf", key: "user-1", want: "user-1/docs/merged_user-1_1700000000123.pdf"},
		{first: "a.pdf", key: "user 1", want: "merged_user_1_1700000000123.pdf"},
		{first: "/abs/a.pdf", key: "u/../x", want: "abs/merged_u_x_1700000000123.pdf"},
	}
	for _, c := range cases {
		if got := mergedFilePath(c.first, c.key, at); got != c.want {
			t.Errorf("mergedFilePath(%q, %q): expected %s, got %s", c.first, c.key, c.want, got)
		}
	}
}

func TestRetryClearsPreviousFailure(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	m.AddToMergeQueue(ctx, "user-9", []models.MergeFile{
		{Type: models.FileTypeExhibit, FilePath: "user-9/missing.pdf"},
	})
	if _, err := m.MergeUserPDFs(ctx, "user-9"); !errors.Is(err, ErrNoValidContent) {
		t.Fatalf("Expected ErrNoValidContent, got %v", err)
	}
	failed, _ := m.GetJobStatus("user-9")
	if failed.Error == "" || len(failed.Diagnostics) == 0 {
		t.Fatalf("Expected the failure to be recorded, got %+v", failed)
	}

	job, snapshot, err := m.claim("user-9")
	if err != nil || job == nil {
		t.Fatalf("Expected the failed job to be claimable, got %v", err)
	}
	if snapshot.Status != models.StatusProcessing {
		t.Errorf("Expected processing, got %s", snapshot.Status)
	}
	if snapshot.Error != "" || snapshot.Diagnostics != nil {
		t.Errorf("Expected a clean processing snapshot, got error %q and diagnostics %v", snapshot.Error, snapshot.Diagnostics)
	}
	running, _ := m.GetJobStatus("user-9")
	if running.Error != "" {
		t.Errorf("Expected no stale error while processing, got %q", running.Error)
	}
}

type mapLoader struct {
	jobs  map[string]*models.MergeJob
	err   error
	calls int
}

func (l *mapLoader) Load(_ context.Context, key string) (*models.MergeJob, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	job, ok := l.jobs[key]
	if !ok {
		return nil, nil
	}
	c := job.Clone()
	return &c, nil
}

func TestLookupJobRecoversRecordedJobs(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()
	putFile(t, store, "user-r/a.pdf", fixturePDF(t, 2))
	loader := &mapLoader{jobs: map[string]*models.MergeJob{
		"user-r": {
			ID:        "job-r",
			Files:     []models.MergeFile{{Type: models.FileTypeExhibit, FilePath: "user-r/a.pdf"}},
			Status:    models.StatusPending,
			CreatedAt: testNow.Add(-time.Hour),
		},
		"user-crashed": {ID: "job-c", Status: models.StatusProcessing, CreatedAt: testNow},
		"user-stale":   {ID: "job-s", Status: models.StatusCompleted, CreatedAt: testNow.Add(-48 * time.Hour)},
	}}
	m.SetJobLoader(loader)

	job, ok := m.LookupJob(ctx, "user-r")
	if !ok || job.ID != "job-r" || job.Key != "user-r" {
		t.Fatalf("Expected the recorded job, got %+v (found=%v)", job, ok)
	}
	res, err := m.MergeUserPDFs(ctx, "user-r")
	if err != nil || res.TotalPages != 2 {
		t.Fatalf("Expected the recovered job to merge, got %+v, %v", res, err)
	}
	calls := loader.calls
	m.LookupJob(ctx, "user-r")
	if loader.calls != calls {
		t.Errorf("Expected a registered key not to hit the loader again")
	}

	crashed, ok := m.LookupJob(ctx, "user-crashed")
	if !ok || crashed.Status != models.StatusFailed || crashed.Error == "" {
		t.Errorf("Expected an interrupted run to come back as failed, got %+v", crashed)
	}
	if _, ok := m.LookupJob(ctx, "user-stale"); ok {
		t.Error("Expected a job past the max age to stay swept")
	}
	if _, ok := m.LookupJob(ctx, "nobody"); ok {
		t.Error("Expected no job for an unknown key")
	}
}

func TestLookupJobSurvivesLoaderErrors(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	m.SetJobLoader(&mapLoader{err: errors.New("unavailable")})
	if _, ok := m.LookupJob(ctx, "user-1"); ok {
		t.Error("Expected no job when the loader fails")
	}
	res, err := m.MergeUserPDFs(ctx, "user-1")
	if err != nil || res.Message != noPendingJobMessage {
		t.Errorf("Expected a no pending merge job result, got %+v, %v", res, err)
	}
}
