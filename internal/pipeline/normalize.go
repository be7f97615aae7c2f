package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/verocta/spendscore/internal/domain"
	"github.com/verocta/spendscore/internal/vendor"
)

// Normalizer maps raw records onto candidate transactions using one resolved
// vendor profile. Rows it cannot structurally parse become rejection entries;
// it never guesses.
type Normalizer struct {
	profile *vendor.Profile
}

// NewNormalizer creates a normalizer for the given profile.
func NewNormalizer(profile *vendor.Profile) *Normalizer {
	return &Normalizer{profile: profile}
}

// Normalize converts records into candidate transactions, appending a
// rejection entry for every row it cannot parse. Output preserves input row
// order.
func (n *Normalizer) Normalize(fileID string, records []RawRecord, report *domain.RejectionReport) []domain.Transaction {
	candidates := make([]domain.Transaction, 0, len(records))
	for _, rec := range records {
		tx, reason, ok := n.normalizeRecord(fileID, rec)
		if !ok {
			report.Add(rec.Index, reason, rec.Snippet())
			continue
		}
		candidates = append(candidates, tx)
	}
	return candidates
}

func (n *Normalizer) normalizeRecord(fileID string, rec RawRecord) (domain.Transaction, domain.ReasonCode, bool) {
	p := n.profile

	// Structural checks first: required columns must be present at all.
	dateRaw, ok := n.resolve(rec, vendor.FieldDate)
	if !ok {
		return domain.Transaction{}, domain.ReasonMissingField, false
	}

	date, ok := parseDate(dateRaw, p.DateLayouts)
	if !ok {
		return domain.Transaction{}, domain.ReasonImplausibleDate, false
	}

	cents, reason, ok := n.resolveAmount(rec)
	if !ok {
		return domain.Transaction{}, reason, false
	}

	currency := p.DefaultCurrency
	if c, ok := n.resolve(rec, vendor.FieldCurrency); ok {
		currency = c
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return domain.Transaction{}, domain.ReasonMissingField, false
	}

	merchant, _ := n.resolve(rec, vendor.FieldMerchant)
	rawCategory, _ := n.resolve(rec, vendor.FieldCategory)

	return domain.Transaction{
		ID:           fmt.Sprintf("%s:%d", fileID, rec.Index),
		Date:         date,
		AmountCents:  cents,
		Currency:     currency,
		Merchant:     merchant,
		RawCategory:  rawCategory,
		Category:     p.MapCategory(rawCategory),
		SourceVendor: p.Tag,
		RowIndex:     rec.Index,
	}, "", true
}

// resolveAmount computes the single signed amount in minor units under the
// profile's sign convention.
func (n *Normalizer) resolveAmount(rec RawRecord) (int64, domain.ReasonCode, bool) {
	switch n.profile.AmountSign {
	case vendor.SignSplit:
		debitRaw, hasDebit := n.resolve(rec, vendor.FieldDebit)
		creditRaw, hasCredit := n.resolve(rec, vendor.FieldCredit)
		if !hasDebit && !hasCredit {
			return 0, domain.ReasonMissingField, false
		}

		var debit, credit int64
		if hasDebit {
			v, err := parseCents(debitRaw)
			if err != nil {
				return 0, domain.ReasonImplausibleAmount, false
			}
			debit = v
		}
		if hasCredit {
			v, err := parseCents(creditRaw)
			if err != nil {
				return 0, domain.ReasonImplausibleAmount, false
			}
			credit = v
		}
		// Both populated on one row: do not guess which direction is real.
		if debit != 0 && credit != 0 {
			return 0, domain.ReasonAmbiguousAmount, false
		}
		if debit != 0 {
			return -abs64(debit), "", true
		}
		return abs64(credit), "", true

	case vendor.SignInverted:
		raw, ok := n.resolve(rec, vendor.FieldAmount)
		if !ok {
			return 0, domain.ReasonMissingField, false
		}
		v, err := parseCents(raw)
		if err != nil {
			return 0, domain.ReasonImplausibleAmount, false
		}
		return -v, "", true

	default: // SignSigned
		raw, ok := n.resolve(rec, vendor.FieldAmount)
		if !ok {
			return 0, domain.ReasonMissingField, false
		}
		v, err := parseCents(raw)
		if err != nil {
			return 0, domain.ReasonImplausibleAmount, false
		}
		return v, "", true
	}
}

// resolve finds the first accepted header present with a non-empty value.
func (n *Normalizer) resolve(rec RawRecord, field vendor.Field) (string, bool) {
	for _, h := range n.profile.Accepted(field) {
		if v, ok := rec.Fields[h]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func parseDate(raw string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Truncate(24 * time.Hour), true
		}
	}
	return time.Time{}, false
}

// parseCents parses an amount string into signed integer minor units.
// Currency symbols, thousands separators and accounting parentheses are
// tolerated; any value that does not fit in whole cents is an error, never
// rounded.
func parseCents(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', '¥', ',', ' ', ' ':
			return -1
		}
		return r
	}, s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parseCents: %q: %w", raw, err)
	}
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("parseCents: %q is not representable in minor units", raw)
	}
	cents := shifted.IntPart()
	if negative {
		cents = -cents
	}
	return cents, nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
