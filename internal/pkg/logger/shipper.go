// internal/pkg/logger/shipper.go
package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

// ShipperConfig holds configuration for the bulk log shipper. The
// endpoint speaks the Elasticsearch bulk NDJSON protocol, which is also
// what most hosted aggregators accept.
type ShipperConfig struct {
	URL           string        `json:"url"`
	IndexPattern  string        `json:"index_pattern"`
	BatchSize     int           `json:"batch_size"`
	FlushInterval time.Duration `json:"flush_interval"`
	Username      string        `json:"username"`
	Password      string        `json:"password"`
}

// ShipperHandler batches log records and ships them to an aggregator
type ShipperHandler struct {
	client      *http.Client
	config      ShipperConfig
	buffer      []shippedEntry
	mu          sync.Mutex
	baseHandler slog.Handler
}

type shippedEntry struct {
	Timestamp  time.Time      `json:"@timestamp"`
	Level      string         `json:"level"`
	Message    string         `json:"message"`
	RequestID  string         `json:"request_id,omitempty"`
	TraceID    string         `json:"trace_id,omitempty"`
	ClientIP   string         `json:"client_ip,omitempty"`
	Method     string         `json:"method,omitempty"`
	Path       string         `json:"path,omitempty"`
	ScanMethod string         `json:"scan_method,omitempty"`
	Device     string         `json:"device,omitempty"`
	StatusCode int            `json:"status_code,omitempty"`
	Duration   float64        `json:"duration_ms,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// NewShipperHandler creates a new shipper handler
func NewShipperHandler(cfg ShipperConfig, baseHandler slog.Handler) *ShipperHandler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}

	handler := &ShipperHandler{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		config:      cfg,
		buffer:      make([]shippedEntry, 0, cfg.BatchSize),
		baseHandler: baseHandler,
	}
	handler.startFlusher()

	return handler
}

func (h *ShipperHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.baseHandler.Enabled(ctx, level)
}

func (h *ShipperHandler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.baseHandler.Handle(ctx, record); err != nil {
		return err
	}

	entry := h.createEntry(ctx, record)

	h.mu.Lock()
	h.buffer = append(h.buffer, entry)
	shouldFlush := len(h.buffer) >= h.config.BatchSize
	h.mu.Unlock()

	if shouldFlush {
		go h.flush()
	}

	return nil
}

func (h *ShipperHandler) createEntry(ctx context.Context, record slog.Record) shippedEntry {
	entry := shippedEntry{
		Timestamp:  record.Time,
		Level:      record.Level.String(),
		Message:    record.Message,
		RequestID:  getContextString(ctx, ContextKeyRequestID),
		TraceID:    getContextString(ctx, ContextKeyTraceID),
		ClientIP:   getContextString(ctx, ContextKeyClientIP),
		Method:     getContextString(ctx, ContextKeyMethod),
		Path:       getContextString(ctx, ContextKeyPath),
		ScanMethod: getContextString(ctx, ContextKeyScanMethod),
		Device:     getContextString(ctx, ContextKeyDevice),
		Fields:     make(map[string]any),
	}

	if statusCode, ok := ctx.Value(ContextKeyStatusCode).(int); ok {
		entry.StatusCode = statusCode
	}
	if duration, ok := ctx.Value(ContextKeyDuration).(time.Duration); ok {
		entry.Duration = float64(duration.Milliseconds())
	}

	record.Attrs(func(a slog.Attr) bool {
		entry.Fields[a.Key] = a.Value.Any()
		return true
	})

	return entry
}

func (h *ShipperHandler) ship(entries []shippedEntry) {
	if len(entries) == 0 {
		return
	}

	var buf bytes.Buffer
	indexName := fmt.Sprintf("%s-%s", h.config.IndexPattern, time.Now().Format("2006.01.02"))
	for _, entry := range entries {
		meta := map[string]any{
			"index": map[string]string{
				"_index": indexName,
			},
		}

		metaJSON, _ := json.Marshal(meta)
		buf.Write(metaJSON)
		buf.WriteByte('\n')

		docJSON, _ := json.Marshal(entry)
		buf.Write(docJSON)
		buf.WriteByte('\n')
	}

	url := fmt.Sprintf("%s/_bulk", h.config.URL)
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		return
	}

	req.Header.Set("Content-Type", "application/x-ndjson")

	if h.config.Username != "" && h.config.Password != "" {
		req.SetBasicAuth(h.config.Username, h.config.Password)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		// The aggregator being down must never break the application
		fmt.Fprintf(os.Stderr, "failed to ship logs: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "log aggregator returned status %d\n", resp.StatusCode)
	}
}

func (h *ShipperHandler) flush() {
	h.mu.Lock()
	if len(h.buffer) == 0 {
		h.mu.Unlock()
		return
	}

	entries := make([]shippedEntry, len(h.buffer))
	copy(entries, h.buffer)
	h.buffer = h.buffer[:0]
	h.mu.Unlock()

	h.ship(entries)
}

func (h *ShipperHandler) startFlusher() {
	go func() {
		ticker := time.NewTicker(h.config.FlushInterval)
		defer ticker.Stop()

		for range ticker.C {
			h.flush()
		}
	}()
}

func (h *ShipperHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ShipperHandler{
		client:      h.client,
		config:      h.config,
		buffer:      h.buffer,
		baseHandler: h.baseHandler.WithAttrs(attrs),
	}
}

func (h *ShipperHandler) WithGroup(name string) slog.Handler {
	return &ShipperHandler{
		client:      h.client,
		config:      h.config,
		buffer:      h.buffer,
		baseHandler: h.baseHandler.WithGroup(name),
	}
}

func getContextString(ctx context.Context, key ContextKey) string {
	if val := ctx.Value(key); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}
