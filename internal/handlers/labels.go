// internal/handlers/labels.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/monabeauty/pos-be/internal/adapters/storage"
	"github.com/monabeauty/pos-be/internal/workers"
)

// LabelsHandler enqueues label rendering jobs. Rendering happens in the
// worker; the API only validates and queues.
type LabelsHandler struct {
	asynqClient *asynq.Client
	logger      *slog.Logger
}

// NewLabelsHandler creates a new labels handler.
func NewLabelsHandler(asynqClient *asynq.Client, logger *slog.Logger) *LabelsHandler {
	return &LabelsHandler{
		asynqClient: asynqClient,
		logger:      logger.With(slog.String("handler", "labels")),
	}
}

// GenerateLabelsRequest selects the products to render labels for.
// Format picks the symbology, "code128" by default or "qr".
type GenerateLabelsRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids"`
	Format     string      `json:"format,omitempty"`
}

// GenerateLabels handles POST /api/v1/labels/generate.
func (h *LabelsHandler) GenerateLabels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GenerateLabelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.ProductIDs) == 0 {
		respondError(w, http.StatusBadRequest, "product_ids is required")
		return
	}
	switch req.Format {
	case "", workers.LabelFormatCode128, workers.LabelFormatQR:
	default:
		respondError(w, http.StatusBadRequest, "format must be code128 or qr")
		return
	}

	jobID := uuid.New().String()
	payload, err := json.Marshal(workers.LabelJobPayload{
		JobID:      jobID,
		ProductIDs: req.ProductIDs,
		Format:     req.Format,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to queue label job")
		return
	}

	info, err := h.asynqClient.Enqueue(
		asynq.NewTask(workers.TypeLabelGenerate, payload),
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue label job", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to queue label job")
		return
	}

	h.logger.InfoContext(ctx, "label job queued",
		slog.String("job_id", jobID),
		slog.String("task_id", info.ID),
		slog.Int("products", len(req.ProductIDs)))

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": jobID,
		"status": "queued",
	})
}

// GenerateSheetRequest selects the products for a printable code sheet.
// Empty selection means the whole catalog, optionally one category.
type GenerateSheetRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids,omitempty"`
	Category   string      `json:"category,omitempty"`
}

// GenerateSheet handles POST /api/v1/labels/sheet.
func (h *LabelsHandler) GenerateSheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GenerateSheetRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	jobID := uuid.New().String()
	payload, err := json.Marshal(workers.SheetJobPayload{
		JobID:      jobID,
		ProductIDs: req.ProductIDs,
		Category:   req.Category,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to queue sheet job")
		return
	}

	info, err := h.asynqClient.Enqueue(
		asynq.NewTask(workers.TypeLabelSheet, payload),
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue sheet job", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to queue sheet job")
		return
	}

	h.logger.InfoContext(ctx, "sheet job queued",
		slog.String("job_id", jobID),
		slog.String("task_id", info.ID))

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": jobID,
		"status": "queued",
		"result": storage.SheetKey(jobID),
	})
}
