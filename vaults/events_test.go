package vaults

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDeposit_V2AndERC4626(t *testing.T) {
	v2 := makeLog(t, vaultAddr, vaultV2EventsABI.Events["Deposit"], 1, 0, []common.Address{alice}, big.NewInt(90), big.NewInt(100))
	ev, err := DecodeDeposit(v2)
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, ev.Sender)
	assert.Equal(t, alice, ev.Owner)
	assert.Equal(t, int64(100), ev.Assets.Int64())
	assert.Equal(t, int64(90), ev.Shares.Int64())

	erc4626 := makeLog(t, vaultAddr, erc4626EventsABI.Events["Deposit"], 1, 1, []common.Address{bob, alice}, big.NewInt(100), big.NewInt(90))
	ev, err = DecodeDeposit(erc4626)
	require.NoError(t, err)
	assert.Equal(t, bob, ev.Sender)
	assert.Equal(t, alice, ev.Owner)
	assert.Equal(t, int64(100), ev.Assets.Int64())
	assert.Equal(t, int64(90), ev.Shares.Int64())
}

func TestDecodeWithdraw_V2RecipientIsOwner(t *testing.T) {
	v2 := makeLog(t, vaultAddr, vaultV2EventsABI.Events["Withdraw"], 1, 0, []common.Address{alice}, big.NewInt(9), big.NewInt(10))
	ev, err := DecodeWithdraw(v2)
	require.NoError(t, err)
	assert.Equal(t, alice, ev.Owner)
	assert.Equal(t, alice, ev.Receiver)
	assert.Equal(t, int64(10), ev.Assets.Int64())
}

func TestDecode_RejectsMalformedLogs(t *testing.T) {
	log := makeLog(t, vaultAddr, erc4626EventsABI.Events["Deposit"], 1, 0, []common.Address{alice, bob}, big.NewInt(1), big.NewInt(1))
	log.Topics = log.Topics[:2]
	_, err := DecodeDeposit(log)
	assert.Error(t, err)

	log = makeLog(t, vaultAddr, vaultV2EventsABI.Events["Transfer"], 1, 0, []common.Address{alice, bob}, big.NewInt(1))
	log.Data = log.Data[:10]
	_, err = DecodeTransfer(log)
	assert.Error(t, err)

	_, err = DecodeStrategyReported(log)
	assert.Error(t, err)
}

func TestTopics_Distinct(t *testing.T) {
	seen := map[common.Hash]bool{}
	for _, topic := range Topics() {
		assert.False(t, seen[topic], "duplicate topic %s", topic.Hex())
		seen[topic] = true
	}
	assert.Len(t, seen, 8)
}
