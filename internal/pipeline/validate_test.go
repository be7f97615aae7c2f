package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verocta/spendscore/internal/domain"
)

var validateRef = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func candidate(row int, date time.Time, cents int64, merchant string) domain.Transaction {
	return domain.Transaction{
		ID:          "f:" + string(rune('0'+row)),
		Date:        date,
		AmountCents: cents,
		Currency:    "USD",
		Merchant:    merchant,
		RawCategory: "Office Supplies",
		Category:    domain.CategoryOffice,
		RowIndex:    row,
	}
}

func TestValidator_DateWindow(t *testing.T) {
	v := NewValidator(DefaultValidationConfig())

	tests := []struct {
		name     string
		date     time.Time
		rejected bool
	}{
		{"recent date passes", validateRef.AddDate(0, -1, 0), false},
		{"reference day passes", validateRef, false},
		{"future date rejected", validateRef.AddDate(0, 0, 1), true},
		{"decade-old date rejected", validateRef.AddDate(-10, 0, -1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &domain.RejectionReport{FileID: "f"}
			clean := v.Validate([]domain.Transaction{candidate(0, tt.date, -5_000, "ACME")}, "", validateRef, report)
			if tt.rejected {
				assert.Empty(t, clean)
				require.Equal(t, 1, report.Len())
				assert.Equal(t, domain.ReasonImplausibleDate, report.Rejections[0].Reason)
			} else {
				assert.Len(t, clean, 1)
				assert.Zero(t, report.Len())
			}
		})
	}
}

func TestValidator_AmountCeiling(t *testing.T) {
	v := NewValidator(ValidationConfig{MaxAgeYears: 10, MaxAmountCents: 100_000})

	report := &domain.RejectionReport{FileID: "f"}
	clean := v.Validate([]domain.Transaction{
		candidate(0, validateRef, -100_000, "At ceiling"),
		candidate(1, validateRef, -100_001, "Over ceiling"),
		candidate(2, validateRef, 200_000, "Inflow over ceiling"),
	}, "", validateRef, report)

	require.Len(t, clean, 1)
	assert.Equal(t, "At ceiling", clean[0].Merchant)
	require.Equal(t, 2, report.Len())
	for _, r := range report.Rejections {
		assert.Equal(t, domain.ReasonImplausibleAmount, r.Reason)
	}
}

func TestValidator_RuleOrderIsFixed(t *testing.T) {
	v := NewValidator(ValidationConfig{MaxAgeYears: 10, MaxAmountCents: 100_000})

	// Trips every rule at once; only the highest-priority reason may appear.
	tx := candidate(0, validateRef.AddDate(1, 0, 0), -999_999, "ACME")
	tx.Currency = "EUR"

	report := &domain.RejectionReport{FileID: "f"}
	clean := v.Validate([]domain.Transaction{tx}, "USD", validateRef, report)

	assert.Empty(t, clean)
	require.Equal(t, 1, report.Len())
	assert.Equal(t, domain.ReasonImplausibleDate, report.Rejections[0].Reason)
}

func TestValidator_CurrencyMismatch(t *testing.T) {
	v := NewValidator(DefaultValidationConfig())

	eur := candidate(0, validateRef, -5_000, "ACME")
	eur.Currency = "EUR"

	t.Run("inactive without expected currency", func(t *testing.T) {
		report := &domain.RejectionReport{FileID: "f"}
		clean := v.Validate([]domain.Transaction{eur}, "", validateRef, report)
		assert.Len(t, clean, 1)
		assert.Zero(t, report.Len())
	})

	t.Run("rejects off-currency rows", func(t *testing.T) {
		report := &domain.RejectionReport{FileID: "f"}
		clean := v.Validate([]domain.Transaction{eur, candidate(1, validateRef, -5_000, "Other")}, "usd", validateRef, report)
		require.Len(t, clean, 1)
		assert.Equal(t, "Other", clean[0].Merchant)
		require.Equal(t, 1, report.Len())
		assert.Equal(t, domain.ReasonCurrencyMismatch, report.Rejections[0].Reason)
	})
}

func TestValidator_DuplicatesFlaggedNotRejected(t *testing.T) {
	v := NewValidator(DefaultValidationConfig())

	report := &domain.RejectionReport{FileID: "f"}
	clean := v.Validate([]domain.Transaction{
		candidate(0, validateRef, -5_000, "ACME"),
		candidate(1, validateRef, -6_000, "ACME"), // same merchant, different amount
		candidate(2, validateRef, -5_000, "acme"), // tuple repeat, case-insensitive
	}, "", validateRef, report)

	// Repeats stay in the clean batch carrying an advisory flag; they are
	// not rejections.
	require.Len(t, clean, 3)
	assert.Zero(t, report.Len())
	assert.False(t, clean[0].HasFlag(domain.FlagPossibleDuplicate))
	assert.False(t, clean[1].HasFlag(domain.FlagPossibleDuplicate))
	assert.True(t, clean[2].HasFlag(domain.FlagPossibleDuplicate))
}

func TestValidator_DuplicateOfRejectedRowIsFlagged(t *testing.T) {
	v := NewValidator(DefaultValidationConfig())

	// First occurrence is rejected for a currency mismatch; the tuple
	// (date, amount, merchant, raw category) excludes currency, so the
	// later USD row repeats it and must carry the flag.
	first := candidate(0, validateRef, -5_000, "ACME")
	first.Currency = "EUR"

	report := &domain.RejectionReport{FileID: "f"}
	clean := v.Validate([]domain.Transaction{
		first,
		candidate(1, validateRef, -5_000, "ACME"),
	}, "USD", validateRef, report)

	require.Equal(t, 1, report.Len())
	assert.Equal(t, domain.ReasonCurrencyMismatch, report.Rejections[0].Reason)
	require.Len(t, clean, 1)
	assert.Equal(t, 1, clean[0].RowIndex)
	assert.True(t, clean[0].HasFlag(domain.FlagPossibleDuplicate))
}

func TestValidator_PreservesOrder(t *testing.T) {
	v := NewValidator(DefaultValidationConfig())

	report := &domain.RejectionReport{FileID: "f"}
	clean := v.Validate([]domain.Transaction{
		candidate(0, validateRef, -1, "a"),
		candidate(1, validateRef.AddDate(1, 0, 0), -2, "b"),
		candidate(2, validateRef, -3, "c"),
		candidate(3, validateRef, -4, "d"),
	}, "", validateRef, report)

	require.Len(t, clean, 3)
	assert.Equal(t, []int{0, 2, 3}, []int{clean[0].RowIndex, clean[1].RowIndex, clean[2].RowIndex})
	require.Equal(t, 1, report.Len())
	assert.Equal(t, 1, report.Rejections[0].RowIndex)
}
