// internal/core/domain/scan.go
package domain

import "time"

// ScanStatus classifies the outcome of resolving one piece of scan input.
// Resolution is total: every input maps to exactly one status.
type ScanStatus string

const (
	// ScanFound means the code resolved to a catalog product.
	ScanFound ScanStatus = "found"
	// ScanUnknown means the code is well-formed but matches no product.
	// The normalized code is carried so the caller can pre-fill creation.
	ScanUnknown ScanStatus = "unknown"
	// ScanMalformed means the input could not be normalized at all.
	ScanMalformed ScanStatus = "malformed"
)

// DecodeMethod records which acquisition path produced a code.
type DecodeMethod string

const (
	MethodStructured DecodeMethod = "structured"
	MethodFallback   DecodeMethod = "fallback"
	MethodKeystroke  DecodeMethod = "keystroke"
	MethodManual     DecodeMethod = "manual"
)

// ScanResult is the resolver's verdict on one scan.
type ScanResult struct {
	Status     ScanStatus   `json:"status"`
	Code       Code         `json:"code,omitempty"`
	Product    *Product     `json:"product,omitempty"`
	Method     DecodeMethod `json:"method,omitempty"`
	Detail     string       `json:"detail,omitempty"`
	ResolvedAt time.Time    `json:"resolved_at"`
}
