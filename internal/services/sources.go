package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Lllllllleong/filingassembly/internal/pdf"
	"golang.org/x/sync/errgroup"
)

type loadResult struct {
	src source
	err error
}

// loadSource reads path from store and counts its pages. Failures are
// classified as ErrMissingInputFile or ErrUnparsableSource.
func loadSource(ctx context.Context, store FileStore, path string, timeout time.Duration) (source, error) {
	ok, err := store.Exists(ctx, path)
	if err != nil {
		return source{}, fmt.Errorf("%w: %v", ErrMissingInputFile, err)
	}
	if !ok {
		return source{}, ErrMissingInputFile
	}
	data, err := store.ReadFile(ctx, path)
	if err != nil {
		return source{}, fmt.Errorf("%w: %v", ErrMissingInputFile, err)
	}
	pages, err := inspect(ctx, data, timeout)
	if err != nil {
		return source{}, fmt.Errorf("%w: %v", ErrUnparsableSource, err)
	}
	return source{path: path, data: data, pages: pages}, nil
}

func inspect(ctx context.Context, data []byte, timeout time.Duration) (int, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return pdf.Inspect(ctx, data)
}

// loadSources loads every path with at most limit reads in flight. Results
// keep the order of paths; a failed load never stops the others.
func loadSources(ctx context.Context, store FileStore, paths []string, timeout time.Duration, limit int) []loadResult {
	results := make([]loadResult, len(paths))
	eg, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			src, err := loadSource(gctx, store, path, timeout)
			results[i] = loadResult{src: src, err: err}
			return nil
		})
	}
	_ = eg.Wait()
	return results
}
