package pricing

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// CustomPrice is the outcome of one price lookup. A zero raw price means every
// source reverted or had no answer, callers must check Reverted before using
// the value.
type CustomPrice struct {
	raw      decimal.Decimal
	decimals int32
	oracle   string
}

func NewPrice(raw *big.Int, decimals int32, oracle string) CustomPrice {
	if raw == nil {
		return Empty()
	}
	return CustomPrice{raw: decimal.NewFromBigInt(raw, 0), decimals: decimals, oracle: oracle}
}

func NewPriceFromDecimal(raw decimal.Decimal, decimals int32, oracle string) CustomPrice {
	return CustomPrice{raw: raw, decimals: decimals, oracle: oracle}
}

func Empty() CustomPrice {
	return CustomPrice{}
}

func (p CustomPrice) Reverted() bool {
	return p.raw.Sign() <= 0
}

func (p CustomPrice) Raw() decimal.Decimal { return p.raw }
func (p CustomPrice) Decimals() int32      { return p.decimals }
func (p CustomPrice) Oracle() string       { return p.oracle }

func (p CustomPrice) USDPrice() decimal.Decimal {
	if p.Reverted() {
		return decimal.Zero
	}
	return p.raw.Shift(-p.decimals)
}

func (p CustomPrice) String() string {
	if p.Reverted() {
		return "reverted"
	}
	return fmt.Sprintf("%s USD (%s)", p.USDPrice().String(), p.oracle)
}
