package score

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verocta/spendscore/internal/domain"
)

var testBase = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func tx(day int, cents int64, cat domain.Category, merchant string) domain.Transaction {
	return domain.Transaction{
		Date:        testBase.AddDate(0, 0, day),
		AmountCents: cents,
		Currency:    "USD",
		Merchant:    merchant,
		Category:    cat,
	}
}

func batchOf(txs ...domain.Transaction) *domain.Batch {
	return &domain.Batch{FileID: "test", SourceVendor: "generic", Transactions: txs}
}

func TestCalculators_NeutralOnSparseData(t *testing.T) {
	cfg := DefaultConfig()
	calcs := []Calculator{
		&frequencyCalc{cfg: cfg},
		&concentrationCalc{cfg: cfg},
		&wasteCalc{cfg: cfg},
		&volatilityCalc{cfg: cfg},
		&subscriptionCalc{cfg: cfg},
		&savingsCalc{cfg: cfg},
	}

	// Below MinTransactions (5) every calculator degrades to the neutral
	// mid-range score instead of fabricating an extreme.
	small := batchOf(
		tx(0, -1000, domain.CategoryOffice, "Staples"),
		tx(1, 2000, domain.CategoryOther, "Client"),
	)

	for _, c := range calcs {
		t.Run(c.Name(), func(t *testing.T) {
			r := c.Compute(small)
			assert.Equal(t, NeutralScore, r.Score)
			assert.True(t, r.InsufficientData)
		})
	}
}

func TestFrequency_PenalizesSmallOutflowSpam(t *testing.T) {
	cfg := DefaultConfig()
	calc := &frequencyCalc{cfg: cfg}

	calm := make([]domain.Transaction, 0, 10)
	for i := 0; i < 10; i++ {
		calm = append(calm, tx(i*3, -2000, domain.CategoryOffice, "Shop"))
	}
	spam := make([]domain.Transaction, 0, 60)
	for i := 0; i < 60; i++ {
		spam = append(spam, tx(i%30, -500, domain.CategoryOther, "Kiosk"))
	}

	calmScore := calc.Compute(batchOf(calm...)).Score
	spamScore := calc.Compute(batchOf(spam...)).Score

	assert.Equal(t, 100.0, calmScore)
	assert.Less(t, spamScore, calmScore)
	assert.GreaterOrEqual(t, spamScore, 0.0)
}

func TestFrequency_FloorsAtZero(t *testing.T) {
	calc := &frequencyCalc{cfg: DefaultConfig()}

	burst := make([]domain.Transaction, 0, 200)
	for i := 0; i < 200; i++ {
		burst = append(burst, tx(i%10, -100, domain.CategoryOther, "Vending"))
	}
	assert.Equal(t, 0.0, calc.Compute(batchOf(burst...)).Score)
}

func TestConcentration_RewardsDiversifiedSpend(t *testing.T) {
	calc := &concentrationCalc{cfg: DefaultConfig()}

	concentrated := batchOf(
		tx(0, -5000, domain.CategoryOffice, "A"),
		tx(1, -5000, domain.CategoryOffice, "B"),
		tx(2, -5000, domain.CategoryOffice, "C"),
		tx(3, -5000, domain.CategoryOffice, "D"),
		tx(4, -5000, domain.CategoryOffice, "E"),
	)
	diversified := batchOf(
		tx(0, -5000, domain.CategoryOffice, "A"),
		tx(1, -5000, domain.CategoryTravel, "B"),
		tx(2, -5000, domain.CategoryPayroll, "C"),
		tx(3, -5000, domain.CategoryUtilities, "D"),
		tx(4, -5000, domain.CategoryMarketing, "E"),
	)

	assert.Greater(t,
		calc.Compute(diversified).Score,
		calc.Compute(concentrated).Score,
	)
}

func TestConcentration_DominantDiscretionaryPenalty(t *testing.T) {
	calc := &concentrationCalc{cfg: DefaultConfig()}

	// Same concentration shape, one dominated by a discretionary category,
	// one by an essential category.
	discretionary := batchOf(
		tx(0, -8000, domain.CategoryEntertainment, "Casino"),
		tx(1, -500, domain.CategoryOffice, "A"),
		tx(2, -500, domain.CategoryTravel, "B"),
		tx(3, -500, domain.CategoryUtilities, "C"),
		tx(4, -500, domain.CategoryPayroll, "D"),
	)
	essential := batchOf(
		tx(0, -8000, domain.CategoryPayroll, "Staff"),
		tx(1, -500, domain.CategoryOffice, "A"),
		tx(2, -500, domain.CategoryTravel, "B"),
		tx(3, -500, domain.CategoryUtilities, "C"),
		tx(4, -500, domain.CategoryEntertainment, "D"),
	)

	assert.Less(t,
		calc.Compute(discretionary).Score,
		calc.Compute(essential).Score,
	)
}

func TestWaste_Monotonicity(t *testing.T) {
	calc := &wasteCalc{cfg: DefaultConfig()}

	// Increasing the waste-category share of outflow while holding the
	// total fixed must never increase the score.
	build := func(wasteCents int64) *domain.Batch {
		const total = 10000
		return batchOf(
			tx(0, -wasteCents, domain.CategoryEntertainment, "Bar"),
			tx(1, -(total - wasteCents), domain.CategoryOffice, "Depot"),
			tx(2, -0, domain.CategoryOther, "Adjustment"),
			tx(3, 1000, domain.CategoryOther, "Client"),
			tx(4, 500, domain.CategoryOther, "Client"),
		)
	}

	prev := 101.0
	for _, waste := range []int64{0, 2000, 4000, 6000, 8000, 10000} {
		score := calc.Compute(build(waste)).Score
		assert.LessOrEqual(t, score, prev, "waste=%d", waste)
		prev = score
	}
}

func TestVolatility_SmoothFlowScoresHigher(t *testing.T) {
	calc := &volatilityCalc{cfg: DefaultConfig()}

	smooth := make([]domain.Transaction, 0, 7)
	for i := 0; i < 7; i++ {
		smooth = append(smooth, tx(i, -1000, domain.CategoryOffice, "Shop"))
	}
	spiky := []domain.Transaction{
		tx(0, -100, domain.CategoryOffice, "A"),
		tx(1, -50000, domain.CategoryOffice, "B"),
		tx(2, -100, domain.CategoryOffice, "C"),
		tx(3, -40000, domain.CategoryOffice, "D"),
		tx(4, -100, domain.CategoryOffice, "E"),
		tx(5, -100, domain.CategoryOffice, "F"),
		tx(6, -35000, domain.CategoryOffice, "G"),
	}

	smoothScore := calc.Compute(batchOf(smooth...)).Score
	spikyScore := calc.Compute(batchOf(spiky...)).Score

	assert.Equal(t, 100.0, smoothScore)
	assert.Less(t, spikyScore, smoothScore)
}

func TestSubscriptions_OverlapPenalty(t *testing.T) {
	calc := &subscriptionCalc{cfg: DefaultConfig()}

	monthly := func(merchant string, months int) []domain.Transaction {
		txs := make([]domain.Transaction, 0, months)
		for m := 0; m < months; m++ {
			txs = append(txs, tx(m*30, -1499, domain.CategorySubscriptions, merchant))
		}
		return txs
	}

	// Three distinct merchants with identical monthly charges in the same
	// category: two redundant subscriptions.
	overlapping := append(append(monthly("Netflix", 3), monthly("Hulu", 3)...), monthly("Disney Plus", 3)...)
	// One recurring merchant plus unrelated noise.
	single := append(monthly("Netflix", 3),
		tx(2, -4200, domain.CategoryOffice, "Depot"),
		tx(9, -1100, domain.CategoryTravel, "Rail Co"),
		tx(17, 9000, domain.CategoryOther, "Client"),
	)

	overlapScore := calc.Compute(batchOf(overlapping...)).Score
	singleScore := calc.Compute(batchOf(single...)).Score

	assert.Less(t, overlapScore, singleScore)

	stats := calc.Compute(batchOf(overlapping...)).Stats
	assert.Equal(t, 3.0, stats["candidate_subscriptions"])
	assert.Equal(t, 2.0, stats["overlapping_subscriptions"])
}

func TestSubscriptions_IrregularChargesAreNotCandidates(t *testing.T) {
	calc := &subscriptionCalc{cfg: DefaultConfig()}

	// Same merchant, similar amounts, but days apart: not a subscription.
	irregular := batchOf(
		tx(0, -1499, domain.CategoryMeals, "Cafe"),
		tx(1, -1499, domain.CategoryMeals, "Cafe"),
		tx(3, -1499, domain.CategoryMeals, "Cafe"),
		tx(4, -1499, domain.CategoryMeals, "Cafe"),
		tx(6, -1499, domain.CategoryMeals, "Cafe"),
	)

	r := calc.Compute(irregular)
	assert.Equal(t, 100.0, r.Score)
	assert.Equal(t, 0.0, r.Stats["candidate_subscriptions"])
}

func TestSubscriptions_MerchantSimplification(t *testing.T) {
	assert.Equal(t, simplifyMerchant("NETFLIX.COM 887421"), simplifyMerchant("Netflix.com 991"))
	assert.NotEqual(t, simplifyMerchant("Netflix"), simplifyMerchant("Spotify"))
}

func TestSavings_ZeroInflowScoresZero(t *testing.T) {
	calc := &savingsCalc{cfg: DefaultConfig()}

	allOut := batchOf(
		tx(0, -1000, domain.CategoryOffice, "A"),
		tx(1, -1000, domain.CategoryOffice, "B"),
		tx(2, -1000, domain.CategoryOffice, "C"),
		tx(3, -1000, domain.CategoryOffice, "D"),
		tx(4, -1000, domain.CategoryOffice, "E"),
	)

	r := calc.Compute(allOut)
	assert.Equal(t, 0.0, r.Score)
	assert.False(t, r.InsufficientData)
	assert.Equal(t, 0.0, r.Stats["savings_rate"])
}

func TestSavings_TargetRateEarnsFullScore(t *testing.T) {
	calc := &savingsCalc{cfg: DefaultConfig()}

	// Savings rate 0.25 == default target.
	b := batchOf(
		tx(0, 40000, domain.CategoryOther, "Client"),
		tx(1, -10000, domain.CategoryOffice, "A"),
		tx(2, -10000, domain.CategoryPayroll, "B"),
		tx(3, -5000, domain.CategoryTravel, "C"),
		tx(4, -5000, domain.CategoryUtilities, "D"),
	)

	r := calc.Compute(b)
	require.Equal(t, 0.25, r.Stats["savings_rate"])
	assert.Equal(t, 100.0, r.Score)
}

func TestSavings_OutflowExceedingInflowClampsToZero(t *testing.T) {
	calc := &savingsCalc{cfg: DefaultConfig()}

	b := batchOf(
		tx(0, 1000, domain.CategoryOther, "Client"),
		tx(1, -2000, domain.CategoryOffice, "A"),
		tx(2, -2000, domain.CategoryOffice, "B"),
		tx(3, -2000, domain.CategoryOffice, "C"),
		tx(4, -2000, domain.CategoryOffice, "D"),
	)

	r := calc.Compute(b)
	assert.Equal(t, 0.0, r.Score)
	assert.Equal(t, 0.0, r.Stats["savings_rate"])
}

func TestGini(t *testing.T) {
	assert.Equal(t, 0.0, gini([]float64{10, 10, 10, 10}))
	assert.InDelta(t, 0.75, gini([]float64{0, 0, 0, 100}), 0.01)
	assert.Equal(t, 0.0, gini([]float64{0, 0, 0}))
}
