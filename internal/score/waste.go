package score

import (
	"github.com/verocta/spendscore/internal/domain"
)

// wasteCalc scores the share of outflow going to discretionary categories.
// A higher waste ratio never increases the score.
type wasteCalc struct {
	cfg Config
}

func (c *wasteCalc) Name() string { return "waste_ratio" }

func (c *wasteCalc) Compute(batch *domain.Batch) MetricResult {
	if sparse(batch, c.cfg) {
		return neutral(c.Name(), nil)
	}

	waste := make(map[domain.Category]bool, len(c.cfg.WasteCategories))
	for _, cat := range c.cfg.WasteCategories {
		waste[cat] = true
	}

	var totalOutflow, wasteOutflow int64
	for i := range batch.Transactions {
		tx := &batch.Transactions[i]
		if !tx.IsOutflow() {
			continue
		}
		totalOutflow += -tx.AmountCents
		if waste[tx.Category] {
			wasteOutflow += -tx.AmountCents
		}
	}
	if totalOutflow == 0 {
		return neutral(c.Name(), map[string]float64{"total_outflow_cents": 0})
	}

	ratio := float64(wasteOutflow) / float64(totalOutflow)

	return MetricResult{
		Name:  c.Name(),
		Score: clampScore(100 - c.cfg.WastePenalty*ratio),
		Stats: map[string]float64{
			"waste_outflow_cents": float64(wasteOutflow),
			"total_outflow_cents": float64(totalOutflow),
			"waste_ratio":         ratio,
		},
	}
}
