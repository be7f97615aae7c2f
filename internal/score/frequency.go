package score

import (
	"math"

	"github.com/verocta/spendscore/internal/domain"
)

// frequencyCalc penalizes excessive small-value outflows: transaction spam
// above a per-period baseline lowers the score monotonically, floored at 0.
type frequencyCalc struct {
	cfg Config
}

func (c *frequencyCalc) Name() string { return "frequency" }

func (c *frequencyCalc) Compute(batch *domain.Batch) MetricResult {
	if sparse(batch, c.cfg) {
		return neutral(c.Name(), nil)
	}

	var small int
	for i := range batch.Transactions {
		tx := &batch.Transactions[i]
		if tx.IsOutflow() && -tx.AmountCents <= c.cfg.SmallOutflowCents {
			small++
		}
	}

	start, end, _ := batch.Span()
	days := end.Sub(start).Hours()/24 + 1
	periods := math.Ceil(days / 30)
	if periods < 1 {
		periods = 1
	}
	rate := float64(small) / periods

	score := 100.0
	if rate > c.cfg.FrequencyBaseline {
		score = clampScore(100 - c.cfg.FrequencyPenalty*(rate-c.cfg.FrequencyBaseline))
	}

	return MetricResult{
		Name:  c.Name(),
		Score: score,
		Stats: map[string]float64{
			"small_outflows":  float64(small),
			"periods":         periods,
			"rate_per_period": rate,
			"baseline":        c.cfg.FrequencyBaseline,
		},
	}
}
