package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/filingassembly/internal/gcp"
	"github.com/Lllllllleong/filingassembly/internal/models"
	"github.com/Lllllllleong/filingassembly/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	mergeInstance *services.MergeFunction
	once          sync.Once
	initErr       error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	gcp.LoadDotEnv()

	functions.HTTP("HandleMergeQueue", handleMergeQueue)
	functions.HTTP("HandleMergeRun", handleMergeRun)
	functions.HTTP("HandleMergeStatus", handleMergeStatus)
	functions.HTTP("HandleCleanupTemp", handleCleanupTemp)
	functions.CloudEvent("SweepMergeJobs", sweepMergeJobs)
}

// main is required by the Go Functions Framework.
func main() {}

// instance initializes the shared merge function once per process.
func instance() (*services.MergeFunction, error) {
	once.Do(func() {
		mergeInstance, initErr = services.NewMergeFunction(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
	}
	return mergeInstance, initErr
}

func handleMergeQueue(w http.ResponseWriter, r *http.Request) {
	f, err := instance()
	if err != nil {
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	var req models.MergeQueueRequest
	if !decode(w, r, &req) {
		return
	}
	job, err := f.Queue(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func handleMergeRun(w http.ResponseWriter, r *http.Request) {
	f, err := instance()
	if err != nil {
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	var req models.MergeKeyRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := f.Run(r.Context(), &req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, services.ErrMergeInProgress):
		writeJSON(w, http.StatusConflict, res)
	case errors.Is(err, services.ErrNoValidContent):
		writeJSON(w, http.StatusUnprocessableEntity, res)
	case res != nil && res.Status == models.StatusFailed:
		writeJSON(w, http.StatusInternalServerError, res)
	default:
		writeError(w, err)
	}
}

func handleMergeStatus(w http.ResponseWriter, r *http.Request) {
	f, err := instance()
	if err != nil {
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		var req models.MergeKeyRequest
		if !decode(w, r, &req) {
			return
		}
		key = req.Key
	}
	res := f.Status(r.Context(), &models.MergeKeyRequest{Key: key})
	status := http.StatusOK
	if !res.Found {
		status = http.StatusNotFound
	}
	writeJSON(w, status, res)
}

func handleCleanupTemp(w http.ResponseWriter, r *http.Request) {
	f, err := instance()
	if err != nil {
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	var req models.MergeKeyRequest
	if !decode(w, r, &req) {
		return
	}
	if err := f.CleanupTemp(r.Context(), &req); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sweepMergeJobs is triggered by a scheduler message. An empty payload uses
// the configured maximum age.
func sweepMergeJobs(ctx context.Context, e cloudevents.Event) error {
	f, err := instance()
	if err != nil {
		return err
	}
	var sweep models.SweepEvent
	if len(e.Data()) > 0 {
		if err := json.Unmarshal(e.Data(), &sweep); err != nil {
			slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
			return fmt.Errorf("json.Unmarshal: %w", err)
		}
	}
	removed := f.Sweep(sweep)
	slog.Info("Merge job sweep finished.", "eventId", e.ID(), "removed", removed)
	return nil
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Error("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrInvalidRequest) {
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
