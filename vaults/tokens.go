package vaults

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/streamingfast/defi-subgraphs/chain"
	"github.com/streamingfast/defi-subgraphs/entity"
	"go.uber.org/zap"
)

const (
	// DecimalsSentinel is stored for tokens whose decimals() call reverts.
	DecimalsSentinel = 9999
	UnknownName      = "unknown"

	defaultDecimals = 18
)

// getOrCreateToken returns the token entity, creating it from the token list
// or from contract reads the first time it is seen.
func (s *Subgraph) getOrCreateToken(ctx context.Context, address common.Address) (*entity.Token, error) {
	token := entity.NewToken(addressID(address))
	if err := s.loader.Load(ctx, token); err != nil {
		return nil, fmt.Errorf("loading token %s: %w", token.ID, err)
	}
	if token.Exists() {
		return token, nil
	}

	if listed, found := s.tokens.Lookup(token.ID); found {
		token.Name = listed.Name
		token.Symbol = listed.Symbol
		token.Decimals = listed.Decimals
	} else {
		var err error
		if token.Decimals, err = s.fetchTokenDecimals(ctx, address); err != nil {
			return nil, err
		}
		if token.Name, err = s.fetchTokenString(ctx, address, "name"); err != nil {
			return nil, err
		}
		if token.Symbol, err = s.fetchTokenString(ctx, address, "symbol"); err != nil {
			return nil, err
		}
	}
	token.LastPriceUSD = decimal.Zero
	token.Sanitize()

	zlog.Debug("created token", zap.String("token", token.ID), zap.String("symbol", token.Symbol), zap.Int32("decimals", token.Decimals))
	if err := s.loader.Save(token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *Subgraph) fetchTokenDecimals(ctx context.Context, address common.Address) (int32, error) {
	contract := chain.NewContract(address, ERC20ABI, s.caller)
	values, err := contract.Call(ctx, s.blockNumber(), "decimals")
	if err != nil {
		if chain.IsReverted(err) {
			return DecimalsSentinel, nil
		}
		return 0, err
	}
	return int32(values[0].(uint8)), nil
}

// fetchTokenString reads name or symbol, first as string then as bytes32 for
// tokens predating the standard.
func (s *Subgraph) fetchTokenString(ctx context.Context, address common.Address, method string) (string, error) {
	values, err := chain.NewContract(address, ERC20ABI, s.caller).Call(ctx, s.blockNumber(), method)
	if err == nil {
		return values[0].(string), nil
	}
	if !chain.IsReverted(err) {
		return "", err
	}

	values, err = chain.NewContract(address, ERC20Bytes32ABI, s.caller).Call(ctx, s.blockNumber(), method)
	if err != nil {
		if chain.IsReverted(err) {
			return UnknownName, nil
		}
		return "", err
	}
	raw := values[0].([32]byte)
	return string(bytes.TrimRight(raw[:], "\x00")), nil
}

// scaleDecimals is the exponent used to convert raw amounts, tokens with
// unknown decimals are assumed to use 18.
func scaleDecimals(token *entity.Token) int32 {
	if token.Decimals == DecimalsSentinel {
		return defaultDecimals
	}
	return token.Decimals
}

// updateTokenPrice resolves the token price at the current block. An empty
// result keeps the last known price.
func (s *Subgraph) updateTokenPrice(ctx context.Context, token *entity.Token) (decimal.Decimal, error) {
	if token.LastPriceBlockNumber == s.block.Number && token.LastPriceBlockNumber != 0 {
		return token.LastPriceUSD, nil
	}

	price, err := s.resolver.GetUsdPricePerToken(ctx, common.HexToAddress(token.ID), s.blockNumber())
	if err != nil {
		return decimal.Zero, fmt.Errorf("pricing token %s: %w", token.ID, err)
	}
	if price.Reverted() {
		return token.LastPriceUSD, nil
	}

	token.LastPriceUSD = price.USDPrice()
	token.LastPriceBlockNumber = s.block.Number
	if err := s.loader.Save(token); err != nil {
		return decimal.Zero, err
	}
	return token.LastPriceUSD, nil
}
