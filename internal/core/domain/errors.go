// internal/core/domain/errors.go
package domain

import "errors"

// Sentinel errors shared across the scan pipeline and the store. Adapters
// wrap these with fmt.Errorf("...: %w", err) so callers can match with
// errors.Is regardless of layer.
var (
	// ErrMalformedCode indicates input that cannot be normalized into a
	// valid product code (empty after trimming, overlong, bad charset).
	ErrMalformedCode = errors.New("malformed code")

	// ErrNoCandidateRegion indicates a frame with no region that survives
	// the geometric candidate filters.
	ErrNoCandidateRegion = errors.New("no candidate region")

	// ErrAmbiguousPattern indicates a frame where multiple candidate
	// regions produced conflicting readings.
	ErrAmbiguousPattern = errors.New("ambiguous pattern")

	// ErrNotFound indicates a lookup that matched no product.
	ErrNotFound = errors.New("product not found")

	// ErrGenerationExhausted indicates the code generator could not find
	// a free code within its attempt budget.
	ErrGenerationExhausted = errors.New("code generation exhausted")

	// ErrDuplicateCode indicates a SKU or barcode that already belongs to
	// another product.
	ErrDuplicateCode = errors.New("duplicate code")

	// ErrInsufficientStock indicates a stock-out or sale that would drive
	// stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrCaptureUnavailable indicates an acquisition channel that cannot
	// be opened or read (camera gone, undecodable upload).
	ErrCaptureUnavailable = errors.New("capture unavailable")

	// ErrDecoderUnavailable indicates a loader-level failure of the
	// structured decoder, as opposed to an ordinary decode miss.
	ErrDecoderUnavailable = errors.New("structured decoder unavailable")
)
