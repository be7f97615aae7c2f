package score

import (
	"sort"
	"strings"

	"github.com/verocta/spendscore/internal/domain"
)

// concentrationCalc rewards diversified spend. It computes the Gini
// coefficient of outflow amount across the full canonical category set (zero
// categories included, so single-category spend reads as high concentration)
// and applies an extra penalty when one discretionary category dominates.
type concentrationCalc struct {
	cfg Config
}

func (c *concentrationCalc) Name() string { return "category_concentration" }

func (c *concentrationCalc) Compute(batch *domain.Batch) MetricResult {
	if sparse(batch, c.cfg) {
		return neutral(c.Name(), nil)
	}

	totals := make(map[domain.Category]int64)
	var totalOutflow int64
	for i := range batch.Transactions {
		tx := &batch.Transactions[i]
		if tx.IsOutflow() {
			totals[tx.Category] += -tx.AmountCents
			totalOutflow += -tx.AmountCents
		}
	}
	if totalOutflow == 0 {
		return neutral(c.Name(), map[string]float64{"total_outflow_cents": 0})
	}

	categories := domain.Categories()
	amounts := make([]float64, len(categories))
	stats := map[string]float64{
		"total_outflow_cents": float64(totalOutflow),
	}

	var dominantShare float64
	var dominant domain.Category
	for i, cat := range categories {
		amounts[i] = float64(totals[cat])
		share := amounts[i] / float64(totalOutflow)
		if share > 0 {
			stats["share_"+strings.ToLower(string(cat))] = share
		}
		if share > dominantShare {
			dominantShare = share
			dominant = cat
		}
	}

	g := gini(amounts)
	score := 100 * (1 - g)
	if dominantShare > c.cfg.ConcentrationDominantShare && c.isWaste(dominant) {
		score -= c.cfg.ConcentrationPenalty
	}

	stats["gini"] = g
	stats["dominant_share"] = dominantShare

	return MetricResult{
		Name:  c.Name(),
		Score: clampScore(score),
		Stats: stats,
	}
}

func (c *concentrationCalc) isWaste(cat domain.Category) bool {
	for _, w := range c.cfg.WasteCategories {
		if w == cat {
			return true
		}
	}
	return false
}

// gini computes the Gini coefficient of a non-negative distribution.
// 0 means perfectly even, values toward 1 mean concentrated.
func gini(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum, weighted float64
	for i, v := range sorted {
		sum += v
		weighted += float64(i+1) * v
	}
	if sum == 0 {
		return 0
	}
	n := float64(len(sorted))
	return (2*weighted)/(n*sum) - (n+1)/n
}
