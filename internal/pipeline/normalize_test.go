package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verocta/spendscore/internal/domain"
	"github.com/verocta/spendscore/internal/vendor"
)

func profileFor(t *testing.T, tag string) *vendor.Profile {
	t.Helper()
	p, ok := vendor.Builtin().ByTag(tag)
	require.True(t, ok, "missing builtin profile %q", tag)
	return p
}

func rec(index int, fields map[string]string) RawRecord {
	return RawRecord{Index: index, Fields: fields, Raw: "row"}
}

func TestNormalizer_SignedAmounts(t *testing.T) {
	n := NewNormalizer(profileFor(t, "quickbooks"))

	tests := []struct {
		amount string
		want   int64
	}{
		{"-20.00", -2_000},
		{"$1,234.56", 123_456},
		{"(50.00)", -5_000},
		{"0.01", 1},
		{"1000", 100_000},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			report := &domain.RejectionReport{FileID: "f"}
			out := n.Normalize("f", []RawRecord{rec(0, map[string]string{
				"date":        "2025-05-01",
				"description": "ACME",
				"amount":      tt.amount,
				"vendor":      "ACME",
			})}, report)

			require.Len(t, out, 1)
			assert.Zero(t, report.Len())
			assert.Equal(t, tt.want, out[0].AmountCents)
		})
	}
}

func TestNormalizer_InvertedSign(t *testing.T) {
	n := NewNormalizer(profileFor(t, "xero"))

	report := &domain.RejectionReport{FileID: "f"}
	out := n.Normalize("f", []RawRecord{
		rec(0, map[string]string{"date": "01/05/2025", "amount": "250.00", "payee": "Vendor Ltd"}),
		rec(1, map[string]string{"date": "01/05/2025", "amount": "-100.00", "payee": "Client"}),
	}, report)

	require.Len(t, out, 2)
	// Positive vendor amounts are outflows; the canonical form flips them.
	assert.Equal(t, int64(-25_000), out[0].AmountCents)
	assert.Equal(t, int64(10_000), out[1].AmountCents)
	assert.Equal(t, "GBP", out[0].Currency)
}

func TestNormalizer_SplitColumns(t *testing.T) {
	n := NewNormalizer(profileFor(t, "wave"))

	base := func(extra map[string]string) map[string]string {
		fields := map[string]string{
			"transaction date":        "2025-05-01",
			"transaction description": "ACME",
		}
		for k, v := range extra {
			fields[k] = v
		}
		return fields
	}

	t.Run("debit becomes outflow", func(t *testing.T) {
		report := &domain.RejectionReport{FileID: "f"}
		out := n.Normalize("f", []RawRecord{rec(0, base(map[string]string{"debit amount": "25.00"}))}, report)
		require.Len(t, out, 1)
		assert.Equal(t, int64(-2_500), out[0].AmountCents)
	})

	t.Run("credit becomes inflow", func(t *testing.T) {
		report := &domain.RejectionReport{FileID: "f"}
		out := n.Normalize("f", []RawRecord{rec(0, base(map[string]string{"credit amount": "100.00"}))}, report)
		require.Len(t, out, 1)
		assert.Equal(t, int64(10_000), out[0].AmountCents)
	})

	t.Run("both populated is ambiguous", func(t *testing.T) {
		report := &domain.RejectionReport{FileID: "f"}
		out := n.Normalize("f", []RawRecord{rec(0, base(map[string]string{
			"debit amount":  "25.00",
			"credit amount": "100.00",
		}))}, report)
		assert.Empty(t, out)
		require.Equal(t, 1, report.Len())
		assert.Equal(t, domain.ReasonAmbiguousAmount, report.Rejections[0].Reason)
	})

	t.Run("neither populated is missing", func(t *testing.T) {
		report := &domain.RejectionReport{FileID: "f"}
		out := n.Normalize("f", []RawRecord{rec(0, base(nil))}, report)
		assert.Empty(t, out)
		require.Equal(t, 1, report.Len())
		assert.Equal(t, domain.ReasonMissingField, report.Rejections[0].Reason)
	})
}

func TestNormalizer_RejectsFractionalCents(t *testing.T) {
	n := NewNormalizer(profileFor(t, "quickbooks"))

	report := &domain.RejectionReport{FileID: "f"}
	out := n.Normalize("f", []RawRecord{rec(0, map[string]string{
		"date":        "2025-05-01",
		"description": "ACME",
		"amount":      "10.005",
		"vendor":      "ACME",
	})}, report)

	// Sub-cent precision is an error, never silently rounded.
	assert.Empty(t, out)
	require.Equal(t, 1, report.Len())
	assert.Equal(t, domain.ReasonImplausibleAmount, report.Rejections[0].Reason)
}

func TestNormalizer_DateHandling(t *testing.T) {
	n := NewNormalizer(profileFor(t, "quickbooks"))

	tests := []struct {
		name   string
		fields map[string]string
		reason domain.ReasonCode
	}{
		{
			name:   "unparseable date",
			fields: map[string]string{"date": "not-a-date", "amount": "-5.00", "vendor": "ACME"},
			reason: domain.ReasonImplausibleDate,
		},
		{
			name:   "missing date column",
			fields: map[string]string{"amount": "-5.00", "vendor": "ACME"},
			reason: domain.ReasonMissingField,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &domain.RejectionReport{FileID: "f"}
			out := n.Normalize("f", []RawRecord{rec(0, tt.fields)}, report)
			assert.Empty(t, out)
			require.Equal(t, 1, report.Len())
			assert.Equal(t, tt.reason, report.Rejections[0].Reason)
		})
	}

	t.Run("dates truncate to UTC midnight", func(t *testing.T) {
		rev := NewNormalizer(profileFor(t, "revolut"))
		report := &domain.RejectionReport{FileID: "f"}
		out := rev.Normalize("f", []RawRecord{rec(0, map[string]string{
			"type":         "card_payment",
			"started date": "2025-05-03 10:30:00",
			"description":  "Spotify",
			"amount":       "-9.99",
			"currency":     "EUR",
		})}, report)
		require.Len(t, out, 1)
		assert.Equal(t, time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC), out[0].Date)
	})
}

func TestNormalizer_CategoryMapping(t *testing.T) {
	n := NewNormalizer(profileFor(t, "quickbooks"))

	report := &domain.RejectionReport{FileID: "f"}
	out := n.Normalize("f", []RawRecord{
		rec(0, map[string]string{"date": "2025-05-01", "amount": "-5.00", "vendor": "A", "category": "Software & Apps"}),
		rec(1, map[string]string{"date": "2025-05-01", "amount": "-5.00", "vendor": "B", "category": "Llama Grooming"}),
		rec(2, map[string]string{"date": "2025-05-01", "amount": "-5.00", "vendor": "C"}),
	}, report)

	require.Len(t, out, 3)
	assert.Equal(t, domain.CategorySoftware, out[0].Category)
	assert.Equal(t, "Software & Apps", out[0].RawCategory)
	// Unknown and absent vendor categories both land in Other.
	assert.Equal(t, domain.CategoryOther, out[1].Category)
	assert.Equal(t, domain.CategoryOther, out[2].Category)
}

func TestNormalizer_CurrencyResolution(t *testing.T) {
	n := NewNormalizer(profileFor(t, "quickbooks"))

	report := &domain.RejectionReport{FileID: "f"}
	out := n.Normalize("f", []RawRecord{
		rec(0, map[string]string{"date": "2025-05-01", "amount": "-5.00", "vendor": "A"}),
		rec(1, map[string]string{"date": "2025-05-01", "amount": "-5.00", "vendor": "B", "currency": "cad"}),
	}, report)

	require.Len(t, out, 2)
	assert.Equal(t, "USD", out[0].Currency)
	assert.Equal(t, "CAD", out[1].Currency)
}

func TestNormalizer_IDsAndOrder(t *testing.T) {
	n := NewNormalizer(profileFor(t, "quickbooks"))

	report := &domain.RejectionReport{FileID: "abc123"}
	out := n.Normalize("abc123", []RawRecord{
		rec(0, map[string]string{"date": "2025-05-01", "amount": "-5.00", "vendor": "A"}),
		rec(1, map[string]string{"date": "bogus", "amount": "-5.00", "vendor": "B"}),
		rec(2, map[string]string{"date": "2025-05-02", "amount": "-6.00", "vendor": "C"}),
	}, report)

	require.Len(t, out, 2)
	assert.Equal(t, "abc123:0", out[0].ID)
	assert.Equal(t, "abc123:2", out[1].ID)
	assert.Equal(t, 2, out[1].RowIndex)
	assert.Equal(t, "quickbooks", out[0].SourceVendor)
}
