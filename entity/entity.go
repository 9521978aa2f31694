package entity

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/streamingfast/eth-go"
)

type Entity interface {
	GetID() string
	SetID(id string)
	Exists() bool
	SetExists(exists bool)
	TableName() string
}

// Base carries the identity half of every entity. The exists flag is never
// serialized, stores set it when a record is found.
type Base struct {
	ID     string `json:"id"`
	exists bool
}

func NewBase(id string) Base {
	return Base{ID: id}
}

func (b *Base) GetID() string         { return b.ID }
func (b *Base) SetID(id string)       { b.ID = id }
func (b *Base) Exists() bool          { return b.exists }
func (b *Base) SetExists(exists bool) { b.exists = exists }

var One = decimal.NewFromInt(1)

const (
	SecondsPerDay  = 86400
	SecondsPerHour = 3600
)

// NormalizeID lowercases a hex address string, adding the 0x prefix when missing.
func NormalizeID(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if !strings.HasPrefix(addr, "0x") {
		addr = "0x" + addr
	}
	return addr
}

func EventID(hash eth.Hash, logIndex uint) string {
	return hash.Pretty() + "-" + strconv.FormatUint(uint64(logIndex), 10)
}

func DayID(timestamp int64) int64 {
	return timestamp / SecondsPerDay
}

func HourID(timestamp int64) int64 {
	return timestamp / SecondsPerHour
}

func ConvertTokenToDecimal(amount *big.Int, decimals int32) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -decimals)
}

// RawAmount wraps an unscaled on-chain integer, used for balances kept in
// token base units.
func RawAmount(amount *big.Int) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, 0)
}

func Sanitize(in string) string {
	return strings.ReplaceAll(in, "\u0000", "")
}
