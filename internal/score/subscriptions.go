package score

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/verocta/spendscore/internal/domain"
)

// subscriptionCalc detects recurring same-merchant, similar-amount outflows
// at regular intervals and penalizes redundant recurring charges in the same
// category. One subscription per category is fine; overlap costs points.
type subscriptionCalc struct {
	cfg Config
}

func (c *subscriptionCalc) Name() string { return "subscription_overlap" }

type recurringGroup struct {
	category domain.Category
	charges  []charge
}

type charge struct {
	day    int // days since epoch
	amount int64
}

func (c *subscriptionCalc) Compute(batch *domain.Batch) MetricResult {
	if sparse(batch, c.cfg) {
		return neutral(c.Name(), nil)
	}

	groups := make(map[string]*recurringGroup)
	for i := range batch.Transactions {
		tx := &batch.Transactions[i]
		if !tx.IsOutflow() {
			continue
		}
		key := simplifyMerchant(tx.Merchant) + "|" + string(tx.Category)
		g, ok := groups[key]
		if !ok {
			g = &recurringGroup{category: tx.Category}
			groups[key] = g
		}
		g.charges = append(g.charges, charge{
			day:    int(tx.Date.Unix() / 86400),
			amount: -tx.AmountCents,
		})
	}

	candidatesPerCategory := make(map[domain.Category]int)
	var candidates int
	for _, g := range groups {
		if c.isCandidate(g) {
			candidates++
			candidatesPerCategory[g.category]++
		}
	}

	var overlapping int
	for _, n := range candidatesPerCategory {
		if n > 1 {
			overlapping += n - 1
		}
	}

	return MetricResult{
		Name:  c.Name(),
		Score: clampScore(100 - c.cfg.SubOverlapPenalty*float64(overlapping)),
		Stats: map[string]float64{
			"candidate_subscriptions":   float64(candidates),
			"overlapping_subscriptions": float64(overlapping),
		},
	}
}

// isCandidate reports whether a merchant group looks like a subscription:
// enough charges, stable amount, and a monthly-ish median interval.
func (c *subscriptionCalc) isCandidate(g *recurringGroup) bool {
	if len(g.charges) < c.cfg.SubMinCharges {
		return false
	}

	var total int64
	for _, ch := range g.charges {
		total += ch.amount
	}
	mean := float64(total) / float64(len(g.charges))
	if mean <= 0 {
		return false
	}
	for _, ch := range g.charges {
		if math.Abs(float64(ch.amount)-mean) > c.cfg.SubAmountTolerance*mean {
			return false
		}
	}

	days := make([]int, len(g.charges))
	for i, ch := range g.charges {
		days[i] = ch.day
	}
	sort.Ints(days)

	intervals := make([]int, 0, len(days)-1)
	for i := 1; i < len(days); i++ {
		intervals = append(intervals, days[i]-days[i-1])
	}
	sort.Ints(intervals)
	median := intervals[len(intervals)/2]

	return median >= c.cfg.SubMinIntervalDays && median <= c.cfg.SubMaxIntervalDays
}

var merchantNoise = regexp.MustCompile(`[\d]+|[^\pL\s]`)

// simplifyMerchant reduces a merchant string to its first three words with
// digits and punctuation stripped, so "NETFLIX.COM 887421" and
// "Netflix.com 991," group together.
func simplifyMerchant(s string) string {
	s = merchantNoise.ReplaceAllString(strings.ToLower(s), "")
	words := strings.Fields(s)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}
