package domain

import (
	"time"
)

// Category is the canonical spend category. Every vendor category string is
// mapped into this closed set during normalization; anything unmapped becomes
// CategoryOther.
type Category string

const (
	CategorySubscriptions Category = "SUBSCRIPTIONS"
	CategorySoftware      Category = "SOFTWARE"
	CategoryTravel        Category = "TRAVEL"
	CategoryOffice        Category = "OFFICE"
	CategoryPayroll       Category = "PAYROLL"
	CategoryMeals         Category = "MEALS"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryUtilities     Category = "UTILITIES"
	CategoryMarketing     Category = "MARKETING"
	CategoryOther         Category = "OTHER"
)

// Categories lists every canonical category in declaration order.
func Categories() []Category {
	return []Category{
		CategorySubscriptions,
		CategorySoftware,
		CategoryTravel,
		CategoryOffice,
		CategoryPayroll,
		CategoryMeals,
		CategoryEntertainment,
		CategoryUtilities,
		CategoryMarketing,
		CategoryOther,
	}
}

// FlagPossibleDuplicate marks a transaction whose (date, amount, merchant,
// raw category) tuple already appeared earlier in the same file. Flagged rows
// stay in the clean batch; duplication is a caller-facing signal, not an error.
const FlagPossibleDuplicate = "possible_duplicate"

// Transaction is one normalized transaction, the unit the scoring engine
// operates on. Amounts are signed integer minor units (cents) under a single
// convention: negative = outflow, positive = inflow, regardless of how the
// source vendor encoded direction. Transactions are never mutated after
// validation.
type Transaction struct {
	// ID is derived from (file id, row index); stable within a batch,
	// not globally unique.
	ID string `json:"id"`

	Date        time.Time `json:"date"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Merchant    string    `json:"merchant"`

	// RawCategory is the vendor's original category string, retained
	// verbatim for audit.
	RawCategory string   `json:"raw_category"`
	Category    Category `json:"category"`

	SourceVendor string `json:"source_vendor"`

	// RowIndex is the zero-based data row index in the source file.
	RowIndex int `json:"row_index"`

	// Flags carries advisory markers such as possible_duplicate.
	Flags []string `json:"flags,omitempty"`
}

// IsOutflow reports whether the transaction moves money out.
func (t *Transaction) IsOutflow() bool {
	return t.AmountCents < 0
}

// IsInflow reports whether the transaction moves money in.
func (t *Transaction) IsInflow() bool {
	return t.AmountCents > 0
}

// HasFlag reports whether the transaction carries the given advisory flag.
func (t *Transaction) HasFlag(flag string) bool {
	for _, f := range t.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Batch is the set of transactions that passed validation for one uploaded
// file, in original file order. Downstream metric calculators receive it
// read-only.
type Batch struct {
	FileID       string        `json:"file_id"`
	SourceVendor string        `json:"source_vendor"`
	Transactions []Transaction `json:"transactions"`
}

// Span returns the earliest and latest transaction dates in the batch.
// ok is false for an empty batch.
func (b *Batch) Span() (start, end time.Time, ok bool) {
	if len(b.Transactions) == 0 {
		return time.Time{}, time.Time{}, false
	}
	start = b.Transactions[0].Date
	end = b.Transactions[0].Date
	for _, t := range b.Transactions[1:] {
		if t.Date.Before(start) {
			start = t.Date
		}
		if t.Date.After(end) {
			end = t.Date
		}
	}
	return start, end, true
}
