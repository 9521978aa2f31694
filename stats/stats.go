// Package stats keeps running statistics over paired token and USD amounts
// using Welford's online algorithm.
package stats

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/streamingfast/defi-subgraphs/entity"
)

// Ceiling seeds the minimums of a fresh accumulator.
var Ceiling = decimal.NewFromInt(math.MaxInt64)

// Init resets a stat to its empty state.
func Init(stat *entity.Stat) {
	stat.Count = 0
	stat.Sum = decimal.Zero
	stat.SumUSD = decimal.Zero
	stat.Mean = decimal.Zero
	stat.MeanUSD = decimal.Zero
	stat.M2 = decimal.Zero
	stat.M2USD = decimal.Zero
	stat.Variance = decimal.Zero
	stat.VarianceUSD = decimal.Zero

	stat.MinAmount = Ceiling
	stat.MinAmountUSD = decimal.Zero
	stat.MaxAmount = decimal.Zero
	stat.MaxAmountUSD = decimal.Zero

	stat.MinUSD = Ceiling
	stat.MinUSDAmount = decimal.Zero
	stat.MaxUSD = decimal.Zero
	stat.MaxUSDAmount = decimal.Zero

	stat.Values = []decimal.Decimal{}
	stat.ValuesUSD = []decimal.Decimal{}
}

// Update folds one (amount, amountUSD) observation into stat.
func Update(stat *entity.Stat, amount, amountUSD decimal.Decimal) {
	stat.Count++
	n := decimal.NewFromInt(stat.Count)

	stat.Sum = stat.Sum.Add(amount)
	stat.SumUSD = stat.SumUSD.Add(amountUSD)

	if stat.Count == 1 {
		stat.Mean = amount
		stat.MeanUSD = amountUSD
		stat.M2 = decimal.Zero
		stat.M2USD = decimal.Zero
		stat.Variance = decimal.Zero
		stat.VarianceUSD = decimal.Zero
	} else {
		stat.Mean, stat.M2 = welford(stat.Mean, stat.M2, amount, n)
		stat.MeanUSD, stat.M2USD = welford(stat.MeanUSD, stat.M2USD, amountUSD, n)

		denominator := n.Sub(entity.One)
		stat.Variance = stat.M2.Div(denominator)
		stat.VarianceUSD = stat.M2USD.Div(denominator)
	}

	if stat.Count == 1 || amount.LessThan(stat.MinAmount) {
		stat.MinAmount = amount
		stat.MinAmountUSD = amountUSD
	}
	if stat.Count == 1 || amount.GreaterThan(stat.MaxAmount) {
		stat.MaxAmount = amount
		stat.MaxAmountUSD = amountUSD
	}

	if stat.Count == 1 || amountUSD.LessThan(stat.MinUSD) {
		stat.MinUSD = amountUSD
		stat.MinUSDAmount = amount
	}
	if stat.Count == 1 || amountUSD.GreaterThan(stat.MaxUSD) {
		stat.MaxUSD = amountUSD
		stat.MaxUSDAmount = amount
	}

	stat.Values = append(stat.Values, amount)
	stat.ValuesUSD = append(stat.ValuesUSD, amountUSD)
}

func welford(mean, m2, x, n decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	delta := x.Sub(mean)
	mean = mean.Add(delta.Div(n))
	m2 = m2.Add(delta.Mul(x.Sub(mean)))
	return mean, m2
}

// StdDev returns the sample standard deviation of the token series. Decimal
// has no square root, float64 is precise enough for a reporting value.
func StdDev(stat *entity.Stat) float64 {
	v, _ := stat.Variance.Float64()
	return math.Sqrt(v)
}
