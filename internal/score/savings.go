package score

import (
	"github.com/verocta/spendscore/internal/domain"
)

// savingsCalc scores the net savings rate: (inflow − outflow) ÷ inflow,
// scaled against a target rate. Outflow exceeding inflow clamps to 0; zero
// inflow with any outflow scores exactly 0, never negative.
type savingsCalc struct {
	cfg Config
}

func (c *savingsCalc) Name() string { return "savings_rate" }

func (c *savingsCalc) Compute(batch *domain.Batch) MetricResult {
	if sparse(batch, c.cfg) {
		return neutral(c.Name(), nil)
	}

	var inflow, outflow int64
	for i := range batch.Transactions {
		tx := &batch.Transactions[i]
		if tx.IsInflow() {
			inflow += tx.AmountCents
		} else {
			outflow += -tx.AmountCents
		}
	}

	stats := map[string]float64{
		"inflow_cents":  float64(inflow),
		"outflow_cents": float64(outflow),
	}

	if inflow == 0 {
		if outflow == 0 {
			return neutral(c.Name(), stats)
		}
		stats["savings_rate"] = 0
		return MetricResult{Name: c.Name(), Score: 0, Stats: stats}
	}

	rate := float64(inflow-outflow) / float64(inflow)
	if rate < 0 {
		rate = 0
	}
	stats["savings_rate"] = rate

	return MetricResult{
		Name:  c.Name(),
		Score: clampScore(100 * rate / c.cfg.SavingsTarget),
		Stats: stats,
	}
}
