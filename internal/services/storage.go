package services

import "context"

// FileStore is where the engine reads source documents from and writes its
// outputs to. Paths are slash separated and relative to the store's root.
type FileStore interface {
	Exists(ctx context.Context, path string) (bool, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	// RemoveAll deletes path and everything below it. A missing path is
	// not an error.
	RemoveAll(ctx context.Context, path string) error
}
