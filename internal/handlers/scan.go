// internal/handlers/scan.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/monabeauty/pos-be/internal/capture"
	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/core/ports"
)

// ScanHandler resolves acquired codes. Raw text arrives from keystroke
// scanners and manual entry; stills arrive as uploads from the camera UI.
type ScanHandler struct {
	scans         ports.ScanService
	images        *capture.ImageSource
	maxImageBytes int64
	logger        *slog.Logger
}

// NewScanHandler creates a scan handler. maxImageMB bounds still uploads.
func NewScanHandler(scans ports.ScanService, images *capture.ImageSource, maxImageMB int, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{
		scans:         scans,
		images:        images,
		maxImageBytes: int64(maxImageMB) << 20,
		logger:        logger.With(slog.String("handler", "scan")),
	}
}

// ScanRequest is the body of a raw-code scan.
type ScanRequest struct {
	Code   string `json:"code"`
	Method string `json:"method,omitempty"`
}

// PostScan handles POST /api/v1/scan. Resolution is total: malformed and
// unknown codes are 200-level verdicts, not errors.
func (h *ScanHandler) PostScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	method, ok := parseMethod(req.Method)
	if !ok {
		respondError(w, http.StatusBadRequest, "Unknown scan method")
		return
	}

	result, err := h.scans.Resolve(ctx, req.Code, method)
	if err != nil {
		h.logger.ErrorContext(ctx, "scan resolution failed",
			slog.String("method", string(method)),
			slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to resolve scan")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// PostScanImage handles POST /api/v1/scan/image: a multipart still image
// is decoded and its code resolved in one round trip.
func (h *ScanHandler) PostScanImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.maxImageBytes); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "Image too large or malformed form data")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Image file is required")
		return
	}
	defer file.Close()

	scan, err := h.images.Decode(ctx, io.LimitReader(file, h.maxImageBytes))
	if err != nil {
		h.respondDecodeError(w, r, err)
		return
	}

	result, err := h.scans.Resolve(ctx, scan.Raw, scan.Method)
	if err != nil {
		h.logger.ErrorContext(ctx, "scan resolution failed",
			slog.String("method", string(scan.Method)),
			slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to resolve scan")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// respondDecodeError distinguishes "this image holds no readable code"
// from infrastructure failure. The former is a client-visible verdict so
// the POS UI can prompt for a retake.
func (h *ScanHandler) respondDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, domain.ErrNoCandidateRegion),
		errors.Is(err, domain.ErrAmbiguousPattern),
		errors.Is(err, domain.ErrMalformedCode):
		respondJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"status": "undecodable",
			"detail": err.Error(),
		})
	case errors.Is(err, domain.ErrCaptureUnavailable):
		respondError(w, http.StatusBadRequest, "Uploaded file is not a decodable image")
	default:
		h.logger.ErrorContext(ctx, "image decode failed", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, "Failed to decode image")
	}
}

func parseMethod(raw string) (domain.DecodeMethod, bool) {
	switch domain.DecodeMethod(raw) {
	case domain.MethodStructured, domain.MethodFallback, domain.MethodKeystroke, domain.MethodManual:
		return domain.DecodeMethod(raw), true
	case "":
		return domain.MethodManual, true
	default:
		return "", false
	}
}
