// internal/workers/tasks.go
package workers

import (
	"github.com/google/uuid"
)

// Task type names, shared between the API (enqueue side) and the worker
// binary (handler side).
const (
	TypeLabelGenerate      = "labels:generate"
	TypeLabelSheet         = "labels:sheet"
	TypeDeliveryNoteImport = "import:delivery_note"
	TypeArtifactCleanup    = "cleanup:artifacts"
)

// Label formats a render job may ask for. Empty means Code-128.
const (
	LabelFormatCode128 = "code128"
	LabelFormatQR      = "qr"
)

// LabelJobPayload asks the worker to render label PNGs for a set of
// products.
type LabelJobPayload struct {
	JobID      string      `json:"job_id"`
	ProductIDs []uuid.UUID `json:"product_ids"`
	Format     string      `json:"format,omitempty"`
}

// SheetJobPayload asks the worker to render a printable code sheet. An
// empty ProductIDs renders the whole catalog, optionally narrowed by
// category.
type SheetJobPayload struct {
	JobID      string      `json:"job_id"`
	ProductIDs []uuid.UUID `json:"product_ids,omitempty"`
	Category   string      `json:"category,omitempty"`
}

// ImportJobPayload points the worker at an uploaded delivery note held in
// the artifact store.
type ImportJobPayload struct {
	JobID       string `json:"job_id"`
	ArtifactKey string `json:"artifact_key"`
	Supplier    string `json:"supplier,omitempty"`
}
