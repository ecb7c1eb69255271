package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/filingassembly/internal/models"
)

// ComposerFunction holds dependencies for the court-composer entry point.
type ComposerFunction struct {
	store    FileStore
	composer *Composer
}

// NewComposerFunction wires a Composer to the store named by the environment.
func NewComposerFunction(ctx context.Context) (*ComposerFunction, error) {
	storeConfig := LoadStoreConfig()
	store, err := NewFileStore(ctx, storeConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create file store: %w", err)
	}
	config := LoadComposerConfig()
	slog.Info("Court composer initialized.", "storageBackend", storeConfig.Backend, "paperSize", config.PaperSize.Name)
	return &ComposerFunction{
		store:    store,
		composer: NewComposer(store, config),
	}, nil
}

// Process composes the filing in req and stores it at req.OutputPath.
func (f *ComposerFunction) Process(ctx context.Context, req *models.ComposeFilingRequest) (*models.ComposeFilingResponse, error) {
	logCtx := slog.With("caseNumber", req.Case.CaseNumber, "outputPath", req.OutputPath)
	if req.OutputPath == "" {
		return nil, fmt.Errorf("%w: outputPath must be set", ErrInvalidRequest)
	}

	application := req.ApplicationForm
	if len(application) == 0 && req.ApplicationPath != "" {
		data, err := f.store.ReadFile(ctx, req.ApplicationPath)
		if err != nil {
			// The composer renders a placeholder for a missing application.
			logCtx.Warn("Could not read application form.", "applicationPath", req.ApplicationPath, "error", err)
		} else {
			application = data
		}
	}

	filing, err := f.composer.Compose(ctx, req.User, req.Case, application, req.Exhibits)
	if err != nil {
		return nil, err
	}
	if err := f.store.WriteFile(ctx, req.OutputPath, filing.Content); err != nil {
		logCtx.Error("Failed to store composed filing", "error", err)
		return nil, fmt.Errorf("%w: failed to store filing: %v", ErrSerialization, err)
	}
	logCtx.Info("Court filing stored.", "pageCount", filing.PageCount)

	return &models.ComposeFilingResponse{
		Status:      "success",
		OutputPath:  req.OutputPath,
		PageCount:   filing.PageCount,
		SectionPage: filing.SectionPages,
		Diagnostics: diagnosticStrings(filing.Diagnostics),
	}, nil
}
