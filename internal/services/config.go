package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/Lllllllleong/filingassembly/internal/filestore"
	"github.com/Lllllllleong/filingassembly/internal/gcp"
	"github.com/Lllllllleong/filingassembly/internal/pdf"
)

const (
	StorageBackendLocal = "local"
	StorageBackendGCS   = "gcs"

	defaultLocalRoot = "uploads"
)

// StoreConfig selects and locates the FileStore.
type StoreConfig struct {
	Backend string
	Root    string
	Bucket  string
}

// LoadStoreConfig reads STORAGE_BACKEND, STORAGE_ROOT and STORAGE_BUCKET.
// For GCS the root is an object prefix.
func LoadStoreConfig() StoreConfig {
	return StoreConfig{
		Backend: strings.ToLower(gcp.GetEnv("STORAGE_BACKEND", StorageBackendLocal)),
		Root:    gcp.GetEnv("STORAGE_ROOT", ""),
		Bucket:  gcp.GetEnv("STORAGE_BUCKET", ""),
	}
}

// NewFileStore builds the store named by cfg.Backend.
func NewFileStore(ctx context.Context, cfg StoreConfig) (FileStore, error) {
	switch cfg.Backend {
	case StorageBackendLocal, "":
		root := cfg.Root
		if root == "" {
			root = defaultLocalRoot
		}
		store, err := filestore.NewLocal(root)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageBackendGCS:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("STORAGE_BUCKET environment variable must be set for the gcs backend")
		}
		store, err := gcp.NewGCSStore(ctx, cfg.Bucket, cfg.Root)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// CloseFileStore releases the client held by store, if any.
func CloseFileStore(store FileStore) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// hoursToDuration converts hours to a Duration, saturating at the largest
// Duration. Non-positive and NaN inputs give zero.
func hoursToDuration(hours float64) time.Duration {
	if math.IsNaN(hours) || hours <= 0 {
		return 0
	}
	d := hours * float64(time.Hour)
	if d >= float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// LoadMergeConfig reads the merge tunables from the environment.
func LoadMergeConfig() MergeConfig {
	d := DefaultMergeConfig()
	return MergeConfig{
		ScratchDir:   gcp.GetEnv("MERGE_SCRATCH_DIR", d.ScratchDir),
		ParseTimeout: gcp.GetEnvDuration("MERGE_PARSE_TIMEOUT", d.ParseTimeout),
		Concurrency:  gcp.GetEnvInt("MERGE_CONCURRENCY", d.Concurrency),
		MaxJobAge:    hoursToDuration(float64(gcp.GetEnvInt("JOB_MAX_AGE_HOURS", int(d.MaxJobAge/time.Hour)))),
	}
}

// LoadComposerConfig reads the composer tunables from the environment.
// PAPER_SIZE accepts A4 or Letter.
func LoadComposerConfig() ComposerConfig {
	d := DefaultComposerConfig()
	size := d.PaperSize
	if strings.EqualFold(gcp.GetEnv("PAPER_SIZE", ""), pdf.Letter.Name) {
		size = pdf.Letter
	}
	return ComposerConfig{
		PaperSize:    size,
		ParseTimeout: gcp.GetEnvDuration("MERGE_PARSE_TIMEOUT", d.ParseTimeout),
		Concurrency:  gcp.GetEnvInt("MERGE_CONCURRENCY", d.Concurrency),
	}
}
