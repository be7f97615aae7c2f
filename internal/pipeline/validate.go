package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/verocta/spendscore/internal/domain"
)

// ValidationConfig holds the plausibility thresholds for the validator.
type ValidationConfig struct {
	// MaxAgeYears bounds how far in the past a transaction date may lie.
	MaxAgeYears int
	// MaxAmountCents bounds the amount magnitude; guards against unit
	// errors such as cents mistaken for whole units.
	MaxAmountCents int64
}

// DefaultValidationConfig returns the default plausibility thresholds.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxAgeYears:    10,
		MaxAmountCents: 1_000_000_000, // 10,000,000.00 in minor units
	}
}

// Validator partitions candidate transactions into a clean batch and
// rejection entries. It never mutates accepted rows beyond attaching advisory
// flags, and the clean batch preserves original row order.
type Validator struct {
	cfg ValidationConfig
}

// NewValidator creates a validator with the given thresholds.
func NewValidator(cfg ValidationConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Validate applies the rejection rules to each candidate independently.
// Rules are checked in fixed priority order (date > amount > currency; the
// structural rule is enforced during normalization) and only the first
// triggered reason is recorded. Duplicate tuples are flagged, not rejected;
// every candidate registers its tuple, including ones that end up rejected.
func (v *Validator) Validate(candidates []domain.Transaction, expectedCurrency string, refTime time.Time, report *domain.RejectionReport) []domain.Transaction {
	expectedCurrency = strings.ToUpper(strings.TrimSpace(expectedCurrency))
	oldest := refTime.AddDate(-v.cfg.MaxAgeYears, 0, 0)

	clean := make([]domain.Transaction, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))

	for _, tx := range candidates {
		// Tuples register before the rejection rules run: a repeat of a
		// rejected row is still a repeat within the file.
		key := duplicateKey(&tx)
		repeat := seen[key]
		seen[key] = true

		if reason, rejected := v.check(&tx, expectedCurrency, refTime, oldest); rejected {
			report.Add(tx.RowIndex, reason, rejectionSnippet(&tx))
			continue
		}

		if repeat {
			tx.Flags = append(tx.Flags, domain.FlagPossibleDuplicate)
		}

		clean = append(clean, tx)
	}
	return clean
}

func (v *Validator) check(tx *domain.Transaction, expectedCurrency string, refTime, oldest time.Time) (domain.ReasonCode, bool) {
	if tx.Date.Before(oldest) || tx.Date.After(refTime) {
		return domain.ReasonImplausibleDate, true
	}
	if tx.AmountCents > v.cfg.MaxAmountCents || tx.AmountCents < -v.cfg.MaxAmountCents {
		return domain.ReasonImplausibleAmount, true
	}
	if expectedCurrency != "" && tx.Currency != expectedCurrency {
		return domain.ReasonCurrencyMismatch, true
	}
	return "", false
}

// duplicateKey identifies repeat (date, amount, merchant, raw category)
// tuples within one source file.
func duplicateKey(tx *domain.Transaction) string {
	return fmt.Sprintf("%s|%d|%s|%s",
		tx.Date.Format("2006-01-02"),
		tx.AmountCents,
		strings.ToLower(tx.Merchant),
		strings.ToLower(tx.RawCategory),
	)
}

func rejectionSnippet(tx *domain.Transaction) string {
	return fmt.Sprintf("%s %s %d %s", tx.Date.Format("2006-01-02"), tx.Merchant, tx.AmountCents, tx.Currency)
}
