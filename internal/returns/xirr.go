// Package returns computes annualized investment returns from irregularly
// dated cash flows.
package returns

import (
	"math"
	"sort"
	"time"

	"github.com/rupeeview/portfolio-backend/internal/apperrors"
)

// CashFlow is one signed, dated flow. Outflows (purchases) are negative,
// inflows (redemptions, current value) positive.
type CashFlow struct {
	Date   time.Time
	Amount float64
}

// Solver parameters. The seed ladder is tried in order after the primary
// seed fails to converge.
const (
	initialGuess  = 0.10
	maxIterations = 100
	npvTolerance  = 1e-6
	rateTolerance = 1e-6
	daysPerYear   = 365.0
)

var fallbackSeeds = []float64{-0.5, -0.1, 0.05, 0.2, 0.5, 1.0}

// XIRR solves Σ CFᵢ/(1+r)^((dateᵢ−date₀)/365) = 0 for r with
// Newton–Raphson. It needs at least two flows with at least one negative and
// one positive amount; anything else, or failure of every seed, returns
// apperrors.ErrReturnsNotComputable. Never panics.
func XIRR(flows []CashFlow) (float64, error) {
	if len(flows) < 2 {
		return 0, apperrors.ErrReturnsNotComputable
	}

	sorted := make([]CashFlow, len(flows))
	copy(sorted, flows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	hasNeg, hasPos := false, false
	for _, f := range sorted {
		if f.Amount < 0 {
			hasNeg = true
		}
		if f.Amount > 0 {
			hasPos = true
		}
	}
	if !hasNeg || !hasPos {
		return 0, apperrors.ErrReturnsNotComputable
	}

	base := sorted[0].Date
	years := make([]float64, len(sorted))
	for i, f := range sorted {
		years[i] = f.Date.Sub(base).Hours() / 24 / daysPerYear
	}

	for _, seed := range append([]float64{initialGuess}, fallbackSeeds...) {
		if rate, ok := solve(sorted, years, seed); ok {
			return rate, nil
		}
	}
	return 0, apperrors.ErrReturnsNotComputable
}

// solve runs one Newton–Raphson attempt from the given seed. The attempt
// aborts when the derivative underflows or the rate walks at or below -1,
// where the discount factor is undefined.
func solve(flows []CashFlow, years []float64, seed float64) (float64, bool) {
	rate := seed
	for i := 0; i < maxIterations; i++ {
		npv, derivative := npvAndDerivative(flows, years, rate)
		if math.Abs(npv) < npvTolerance {
			return rate, true
		}
		if math.Abs(derivative) < 1e-12 {
			return 0, false
		}
		next := rate - npv/derivative
		if next <= -1 || math.IsNaN(next) || math.IsInf(next, 0) {
			return 0, false
		}
		if math.Abs(next-rate) < rateTolerance {
			return next, true
		}
		rate = next
	}
	return 0, false
}

func npvAndDerivative(flows []CashFlow, years []float64, rate float64) (npv, derivative float64) {
	for i, f := range flows {
		t := years[i]
		discount := math.Pow(1+rate, t)
		npv += f.Amount / discount
		if t > 0 {
			derivative -= t * f.Amount / math.Pow(1+rate, t+1)
		}
	}
	return npv, derivative
}
