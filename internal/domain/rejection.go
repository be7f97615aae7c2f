package domain

// ReasonCode identifies why a row was rejected during normalization or
// validation. Row-level problems never escalate to batch-level failure.
type ReasonCode string

const (
	// ReasonMissingField: a required field is absent after column resolution.
	ReasonMissingField ReasonCode = "MissingField"
	// ReasonAmbiguousAmount: both debit and credit columns populated on one row.
	ReasonAmbiguousAmount ReasonCode = "AmbiguousAmount"
	// ReasonImplausibleDate: unparseable, too old, or future-dated.
	ReasonImplausibleDate ReasonCode = "ImplausibleDate"
	// ReasonImplausibleAmount: magnitude above the configured ceiling.
	ReasonImplausibleAmount ReasonCode = "ImplausibleAmount"
	// ReasonCurrencyMismatch: does not match the caller-pinned batch currency.
	ReasonCurrencyMismatch ReasonCode = "CurrencyMismatch"
)

// Rejection is one rejected row: its position in the source file, the
// first-triggered reason, and a short snippet of the raw row for audit.
type Rejection struct {
	RowIndex int        `json:"row_index"`
	Reason   ReasonCode `json:"reason"`
	Snippet  string     `json:"snippet"`
}

// RejectionReport records every rejected row of a batch in original file
// order. No row is ever dropped without an entry here.
type RejectionReport struct {
	FileID     string      `json:"file_id"`
	Rejections []Rejection `json:"rejections"`
}

// Add appends an entry to the report.
func (r *RejectionReport) Add(rowIndex int, reason ReasonCode, snippet string) {
	r.Rejections = append(r.Rejections, Rejection{RowIndex: rowIndex, Reason: reason, Snippet: snippet})
}

// Len returns the number of rejected rows.
func (r *RejectionReport) Len() int {
	return len(r.Rejections)
}
