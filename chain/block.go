package chain

import (
	"math/big"
	"time"

	"github.com/streamingfast/eth-go"
)

type Block struct {
	Number    uint64
	Hash      eth.Hash
	Timestamp time.Time
}

func (b Block) BigNumber() *big.Int {
	return new(big.Int).SetUint64(b.Number)
}
