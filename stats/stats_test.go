package stats

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/streamingfast/defi-subgraphs/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newStat() *entity.Stat {
	s := entity.NewStat("vault-deposit")
	Init(s)
	return s
}

func assertClose(t *testing.T, expected, actual decimal.Decimal) {
	t.Helper()
	diff := expected.Sub(actual).Abs()
	assert.True(t, diff.LessThan(d("0.000000001")), "expected %s, got %s", expected, actual)
}

func TestUpdate_SingleObservation(t *testing.T) {
	s := newStat()
	Update(s, d("12.5"), d("25"))

	assert.Equal(t, int64(1), s.Count)
	assert.True(t, s.Mean.Equal(d("12.5")))
	assert.True(t, s.MeanUSD.Equal(d("25")))
	assert.True(t, s.Variance.IsZero())
	assert.True(t, s.VarianceUSD.IsZero())
	assert.True(t, s.MinAmount.Equal(d("12.5")))
	assert.True(t, s.MaxAmount.Equal(d("12.5")))
}

func TestUpdate_MeanAndSampleVariance(t *testing.T) {
	tests := []struct {
		name    string
		amounts []string
		usd     []string
	}{
		{"integers", []string{"5", "2", "9", "1"}, []string{"10", "4", "18", "2"}},
		{"fractions", []string{"0.1", "0.25", "3.75", "100.001", "7"}, []string{"1", "2", "3", "4", "5"}},
		{"constant", []string{"3", "3", "3"}, []string{"6", "6", "6"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newStat()
			for i := range test.amounts {
				Update(s, d(test.amounts[i]), d(test.usd[i]))
			}

			mean, variance := naive(test.amounts)
			meanUSD, varianceUSD := naive(test.usd)

			assertClose(t, mean, s.Mean)
			assertClose(t, variance, s.Variance)
			assertClose(t, meanUSD, s.MeanUSD)
			assertClose(t, varianceUSD, s.VarianceUSD)
			assert.Len(t, s.Values, len(test.amounts))
			assert.Len(t, s.ValuesUSD, len(test.usd))
		})
	}
}

func TestUpdate_MinMaxPairing(t *testing.T) {
	s := newStat()
	amounts := []string{"5", "2", "9", "1"}
	usd := []string{"50", "20", "90", "10"}
	for i := range amounts {
		Update(s, d(amounts[i]), d(usd[i]))
	}

	assert.True(t, s.MinAmount.Equal(d("1")))
	assert.True(t, s.MinAmountUSD.Equal(d("10")))
	assert.True(t, s.MaxAmount.Equal(d("9")))
	assert.True(t, s.MaxAmountUSD.Equal(d("90")))
	assert.True(t, s.MinUSD.Equal(d("10")))
	assert.True(t, s.MinUSDAmount.Equal(d("1")))
	assert.True(t, s.MaxUSD.Equal(d("90")))
	assert.True(t, s.MaxUSDAmount.Equal(d("9")))
	assert.True(t, s.Sum.Equal(d("17")))
}

func TestInit_SeedsMinimumAtCeiling(t *testing.T) {
	s := newStat()
	assert.True(t, s.MinAmount.Equal(Ceiling))
	assert.True(t, s.MinUSD.Equal(Ceiling))

	Update(s, d("99999999999999999999"), d("1"))
	require.True(t, s.MinAmount.Equal(d("99999999999999999999")))
}

func TestStdDev(t *testing.T) {
	s := newStat()
	for _, v := range []string{"2", "4", "4", "4", "5", "5", "7", "9"} {
		Update(s, d(v), d(v))
	}
	assert.InDelta(t, 2.138, StdDev(s), 0.001)
}

func naive(values []string) (decimal.Decimal, decimal.Decimal) {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(d(v))
	}
	n := decimal.NewFromInt(int64(len(values)))
	mean := sum.Div(n)
	if len(values) < 2 {
		return mean, decimal.Zero
	}

	sq := decimal.Zero
	for _, v := range values {
		diff := d(v).Sub(mean)
		sq = sq.Add(diff.Mul(diff))
	}
	return mean, sq.Div(n.Sub(decimal.NewFromInt(1)))
}
