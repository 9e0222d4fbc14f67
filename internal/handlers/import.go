// internal/handlers/import.go
package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/monabeauty/pos-be/internal/adapters/storage"
	"github.com/monabeauty/pos-be/internal/workers"
)

// ImportHandler accepts supplier delivery notes and queues them for
// background ingestion. The upload goes straight to the artifact store so
// any worker node can pick the job up.
type ImportHandler struct {
	asynqClient *asynq.Client
	store       storage.ArtifactStore
	maxPDFBytes int64
	logger      *slog.Logger
}

// NewImportHandler creates a new import handler. maxPDFMB bounds uploads.
func NewImportHandler(asynqClient *asynq.Client, store storage.ArtifactStore, maxPDFMB int, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		asynqClient: asynqClient,
		store:       store,
		maxPDFBytes: int64(maxPDFMB) << 20,
		logger:      logger.With(slog.String("handler", "import")),
	}
}

// ImportDeliveryNote handles POST /api/v1/import/delivery-note.
func (h *ImportHandler) ImportDeliveryNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.maxPDFBytes); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "File too large or malformed form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "application/pdf" && !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		respondError(w, http.StatusBadRequest, "Only PDF delivery notes are accepted")
		return
	}

	supplier := r.FormValue("supplier")

	jobID := uuid.New().String()
	artifactKey := storage.ImportKey(jobID)

	if _, err := h.store.Upload(ctx, artifactKey, io.LimitReader(file, h.maxPDFBytes), "application/pdf"); err != nil {
		h.logger.ErrorContext(ctx, "failed to store delivery note",
			slog.String("job_id", jobID),
			slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	payload, err := json.Marshal(workers.ImportJobPayload{
		JobID:       jobID,
		ArtifactKey: artifactKey,
		Supplier:    supplier,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to queue import job")
		return
	}

	info, err := h.asynqClient.Enqueue(
		asynq.NewTask(workers.TypeDeliveryNoteImport, payload),
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour))
	if err != nil {
		if delErr := h.store.Delete(ctx, artifactKey); delErr != nil {
			h.logger.WarnContext(ctx, "failed to remove orphaned upload",
				slog.String("key", artifactKey),
				slog.Any("error", delErr))
		}
		h.logger.ErrorContext(ctx, "failed to enqueue import job", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to queue import job")
		return
	}

	h.logger.InfoContext(ctx, "delivery note import queued",
		slog.String("job_id", jobID),
		slog.String("task_id", info.ID),
		slog.String("filename", header.Filename),
		slog.String("supplier", supplier))

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":  jobID,
		"status":  "queued",
		"message": "Delivery note has been queued for processing",
	})
}
