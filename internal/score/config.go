// Package score implements the SpendScore engine: six independent metric
// calculators over one immutable transaction batch, combined by fixed weights
// into a single tiered score.
package score

import (
	"fmt"
	"math"

	"github.com/verocta/spendscore/internal/domain"
)

// Weights are the named, fixed metric weights. They must sum to 1.0.
type Weights struct {
	Frequency     float64 `json:"frequency"`
	Concentration float64 `json:"concentration"`
	Waste         float64 `json:"waste"`
	Volatility    float64 `json:"volatility"`
	Subscriptions float64 `json:"subscriptions"`
	Savings       float64 `json:"savings"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Frequency + w.Concentration + w.Waste + w.Volatility + w.Subscriptions + w.Savings
}

// Config holds every scoring policy constant. All values are configuration,
// not hard-coded law; DefaultConfig documents the chosen policy.
type Config struct {
	// MinTransactions is the per-metric minimum batch size; below it a
	// metric degrades to the neutral score and flags insufficient data.
	MinTransactions int

	// SmallOutflowCents is the ceiling under which an outflow counts as a
	// small transaction for the frequency metric.
	SmallOutflowCents int64
	// FrequencyBaseline is the tolerated small-outflow count per 30-day
	// window; FrequencyPenalty is the score cost per excess transaction.
	FrequencyBaseline float64
	FrequencyPenalty  float64

	// ConcentrationDominantShare is the outflow share above which a single
	// discretionary category triggers ConcentrationPenalty.
	ConcentrationDominantShare float64
	ConcentrationPenalty       float64

	// WastePenalty scales the discretionary outflow ratio into score loss.
	WastePenalty float64
	// WasteCategories are the discretionary categories counted as waste.
	WasteCategories []domain.Category

	// VolatilityPenalty scales the daily net flow coefficient of variation.
	VolatilityPenalty float64

	// Subscription detection: a candidate needs SubMinCharges same-merchant
	// charges with amounts within SubAmountTolerance of their mean and a
	// median interval between SubMinIntervalDays and SubMaxIntervalDays.
	// Each same-category candidate beyond the first costs SubOverlapPenalty.
	SubMinCharges      int
	SubAmountTolerance float64
	SubMinIntervalDays int
	SubMaxIntervalDays int
	SubOverlapPenalty  float64

	// SavingsTarget is the net savings rate that earns the full score.
	SavingsTarget float64

	Weights Weights
}

// DefaultConfig returns the default scoring policy.
func DefaultConfig() Config {
	return Config{
		MinTransactions: 5,

		SmallOutflowCents: 2_500,
		FrequencyBaseline: 20,
		FrequencyPenalty:  2,

		ConcentrationDominantShare: 0.5,
		ConcentrationPenalty:       15,

		WastePenalty: 150,
		WasteCategories: []domain.Category{
			domain.CategoryEntertainment,
			domain.CategoryMeals,
			domain.CategorySubscriptions,
		},

		VolatilityPenalty: 25,

		SubMinCharges:      3,
		SubAmountTolerance: 0.05,
		SubMinIntervalDays: 20,
		SubMaxIntervalDays: 40,
		SubOverlapPenalty:  25,

		SavingsTarget: 0.25,

		Weights: Weights{
			Frequency:     0.15,
			Concentration: 0.10,
			Waste:         0.20,
			Volatility:    0.20,
			Subscriptions: 0.15,
			Savings:       0.20,
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c Config) Validate() error {
	if c.MinTransactions < 1 {
		return fmt.Errorf("score config: MinTransactions must be positive")
	}
	if math.Abs(c.Weights.Sum()-1.0) > 1e-9 {
		return fmt.Errorf("score config: weights sum to %v, want 1.0", c.Weights.Sum())
	}
	if c.SavingsTarget <= 0 {
		return fmt.Errorf("score config: SavingsTarget must be positive")
	}
	if c.SubMinCharges < 2 {
		return fmt.Errorf("score config: SubMinCharges must be at least 2")
	}
	if c.SubMinIntervalDays >= c.SubMaxIntervalDays {
		return fmt.Errorf("score config: subscription interval window is empty")
	}
	return nil
}
