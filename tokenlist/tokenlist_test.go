package tokenlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleList = `{
  "name": "Sample List",
  "tokens": [
    {"chainId": 1, "address": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "name": "USD Coin", "symbol": "USDC", "decimals": 6},
    {"chainId": 1, "address": "0x6B175474E89094C44Da98b954EedeAC495271d0F", "name": " Dai Stablecoin ", "symbol": "DAI", "decimals": 18},
    {"chainId": 42161, "address": "0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8", "name": "Bridged USDC", "symbol": "USDC.e", "decimals": 6}
  ]
}`

func TestParse(t *testing.T) {
	list, err := Parse([]byte(sampleList), 1)
	require.NoError(t, err)

	assert.Equal(t, "Sample List", list.Name)
	assert.Equal(t, 2, list.Len())

	token, found := list.Lookup("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	require.True(t, found)
	assert.Equal(t, "USDC", token.Symbol)
	assert.Equal(t, int32(6), token.Decimals)

	token, found = list.Lookup("6B175474E89094C44Da98b954EedeAC495271d0F")
	require.True(t, found)
	assert.Equal(t, "Dai Stablecoin", token.Name)

	_, found = list.Lookup("0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8")
	assert.False(t, found)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`{"tokens": `), 1)
	assert.Error(t, err)

	_, err = Parse([]byte(`{"name": "empty"}`), 1)
	assert.Error(t, err)
}

func TestNilList(t *testing.T) {
	var list *List
	_, found := list.Lookup("0x01")
	assert.False(t, found)
	assert.Equal(t, 0, list.Len())
}

func TestFetch(t *testing.T) {
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		w.Write([]byte(sampleList))
	}))
	defer server.Close()

	list, err := Fetch(context.Background(), server.Client(), server.URL+"/ipfs/", "bafytokenlist", 0)
	require.NoError(t, err)

	assert.Equal(t, "/ipfs/bafytokenlist", requested)
	assert.Equal(t, 3, list.Len())

	_, err = Fetch(context.Background(), server.Client(), server.URL, "", 0)
	assert.Error(t, err)
}

func TestFetch_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer server.Close()

	_, err := Fetch(context.Background(), server.Client(), server.URL, "bafytokenlist", 1)
	assert.Error(t, err)
}
