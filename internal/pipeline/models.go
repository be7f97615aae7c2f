// Package pipeline turns raw vendor export bytes into a validated transaction
// batch and a SpendScore. The flow is strictly one-directional: decode →
// detect → normalize → validate → score. All inputs and outputs are in-memory
// values; persistence belongs to the caller.
package pipeline

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyBatch is returned when a file yields zero parseable rows after
// normalization. This is the only batch-fatal condition besides an
// unrecognized format.
var ErrEmptyBatch = errors.New("pipeline: no parseable rows after normalization")

// RawRecord is one data row of a vendor export: a mapping from normalized
// column header to the raw cell value. Ephemeral; discarded after
// normalization.
type RawRecord struct {
	// Index is the zero-based data row index (header row excluded).
	Index int
	// Fields maps normalized header name to raw cell value.
	Fields map[string]string
	// Raw is the original row joined for audit snippets.
	Raw string
}

// Snippet returns a shortened raw-row excerpt for rejection reports.
func (r *RawRecord) Snippet() string {
	const max = 120
	s := strings.TrimSpace(r.Raw)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// Options control a single Ingest invocation.
type Options struct {
	// Filename drives the decode path (.xlsx workbooks vs CSV) and is kept
	// for reporting. Optional; defaults to CSV decoding.
	Filename string

	// ExpectedCurrency, when set, activates the CurrencyMismatch rule
	// against this ISO code.
	ExpectedCurrency string

	// ReferenceTime anchors the date plausibility window and the result
	// timestamp. Zero value means time.Now; tests pass a fixed time for
	// determinism.
	ReferenceTime time.Time
}
