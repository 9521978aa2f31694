package tokenlist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/streamingfast/defi-subgraphs/entity"
)

const DefaultGateway = "https://ipfs.io/ipfs/"

type Token struct {
	Address  string
	ChainID  int64
	Name     string
	Symbol   string
	Decimals int32
}

// List indexes token list entries by lowercase address.
type List struct {
	Name   string
	tokens map[string]Token
}

func (l *List) Lookup(address string) (Token, bool) {
	if l == nil {
		return Token{}, false
	}
	token, found := l.tokens[entity.NormalizeID(address)]
	return token, found
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.tokens)
}

// Parse reads a token list document in the tokenlists.org format, keeping
// only the entries of chainID (0 keeps everything).
func Parse(content []byte, chainID int64) (*List, error) {
	if !gjson.ValidBytes(content) {
		return nil, fmt.Errorf("invalid token list json")
	}

	doc := gjson.ParseBytes(content)
	tokens := doc.Get("tokens")
	if !tokens.IsArray() {
		return nil, fmt.Errorf("token list has no tokens array")
	}

	list := &List{Name: doc.Get("name").String(), tokens: map[string]Token{}}
	tokens.ForEach(func(_, value gjson.Result) bool {
		token := Token{
			Address:  entity.NormalizeID(value.Get("address").String()),
			ChainID:  value.Get("chainId").Int(),
			Name:     strings.TrimSpace(value.Get("name").String()),
			Symbol:   strings.TrimSpace(value.Get("symbol").String()),
			Decimals: int32(value.Get("decimals").Int()),
		}
		if token.Address == "0x" || (chainID != 0 && token.ChainID != chainID) {
			return true
		}
		list.tokens[token.Address] = token
		return true
	})

	return list, nil
}

// Fetch downloads the token list pinned under cid through an IPFS gateway.
func Fetch(ctx context.Context, client *http.Client, gateway, cid string, chainID int64) (*List, error) {
	if cid == "" {
		return nil, fmt.Errorf("token list cid not set")
	}
	if gateway == "" {
		gateway = DefaultGateway
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	url := strings.TrimSuffix(gateway, "/") + "/" + cid
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching token list %s: %w", cid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching token list %s: unexpected status %d", cid, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token list %s: %w", cid, err)
	}

	list, err := Parse(content, chainID)
	if err != nil {
		return nil, fmt.Errorf("parsing token list %s: %w", cid, err)
	}

	zlog.Info("loaded token list", zap.String("cid", cid), zap.String("name", list.Name), zap.Int("tokens", list.Len()))
	return list, nil
}
