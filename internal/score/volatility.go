package score

import (
	"math"
	"time"

	"github.com/verocta/spendscore/internal/domain"
)

// volatilityCalc penalizes erratic daily cash flow: the standard deviation of
// net daily flow relative to its mean magnitude over the batch's date span.
// Smoother flow scores higher; zero variance scores 100.
type volatilityCalc struct {
	cfg Config
}

func (c *volatilityCalc) Name() string { return "volatility" }

func (c *volatilityCalc) Compute(batch *domain.Batch) MetricResult {
	if sparse(batch, c.cfg) {
		return neutral(c.Name(), nil)
	}

	start, end, ok := batch.Span()
	if !ok {
		return neutral(c.Name(), nil)
	}

	daily := make(map[time.Time]int64)
	for i := range batch.Transactions {
		tx := &batch.Transactions[i]
		daily[tx.Date] += tx.AmountCents
	}

	// Every day of the span participates; quiet days are zero flow.
	var nets []float64
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		nets = append(nets, float64(daily[d]))
	}

	var sum, absSum float64
	for _, v := range nets {
		sum += v
		absSum += math.Abs(v)
	}
	n := float64(len(nets))
	mean := sum / n
	meanAbs := absSum / n

	var variance float64
	for _, v := range nets {
		variance += (v - mean) * (v - mean)
	}
	variance /= n
	stddev := math.Sqrt(variance)

	var cv float64
	if meanAbs > 0 {
		cv = stddev / meanAbs
	}

	return MetricResult{
		Name:  c.Name(),
		Score: clampScore(100 - c.cfg.VolatilityPenalty*cv),
		Stats: map[string]float64{
			"days":                     n,
			"mean_daily_net_cents":     mean,
			"stddev_daily_net_cents":   stddev,
			"coefficient_of_variation": cv,
		},
	}
}
