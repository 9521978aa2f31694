package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// PageSize is the largest page a hosted subgraph returns.
const PageSize = 1000

// QueryAll pages through a subgraph collection. query must declare the
// $first and $skip variables and select the collection under attribute.
// Pages are concatenated until one comes back short.
func QueryAll(ctx context.Context, client *http.Client, endpoint, query, attribute string, vars map[string]interface{}) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for skip := 0; ; skip += PageSize {
		variables := map[string]interface{}{}
		for k, v := range vars {
			variables[k] = v
		}
		variables["first"] = PageSize
		variables["skip"] = skip

		data, err := Query(ctx, client, endpoint, query, variables)
		if err != nil {
			return nil, err
		}

		page := data.Get(attribute)
		if !page.IsArray() {
			return nil, fmt.Errorf("response has no %q collection", attribute)
		}

		items := page.Array()
		for _, item := range items {
			out = append(out, json.RawMessage(item.Raw))
		}

		zlog.Debug("fetched page", zap.String("endpoint", endpoint), zap.String("attribute", attribute), zap.Int("skip", skip), zap.Int("items", len(items)))
		if len(items) < PageSize {
			return out, nil
		}
	}
}

// Query runs one GraphQL request and returns its data object. GraphQL level
// errors are returned as errors.
func Query(ctx context.Context, client *http.Client, endpoint, query string, variables map[string]interface{}) (gjson.Result, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("querying %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("querying %s: unexpected status %d", endpoint, resp.StatusCode)
	}
	if !gjson.ValidBytes(content) {
		return gjson.Result{}, fmt.Errorf("querying %s: invalid json response", endpoint)
	}

	result := gjson.ParseBytes(content)
	if errs := result.Get("errors"); errs.IsArray() && len(errs.Array()) > 0 {
		return gjson.Result{}, fmt.Errorf("querying %s: %s", endpoint, errs.Get("0.message").String())
	}
	return result.Get("data"), nil
}

const metaQuery = `{ _meta { deployment hasIndexingErrors block { number } } }`

type Meta struct {
	Deployment        string
	BlockNumber       uint64
	HasIndexingErrors bool
}

// FetchMeta reads the indexing status a subgraph reports about itself.
func FetchMeta(ctx context.Context, client *http.Client, endpoint string) (*Meta, error) {
	data, err := Query(ctx, client, endpoint, metaQuery, nil)
	if err != nil {
		return nil, err
	}
	meta := data.Get("_meta")
	if !meta.Exists() {
		return nil, fmt.Errorf("querying %s: no _meta in response", endpoint)
	}
	return &Meta{
		Deployment:        meta.Get("deployment").String(),
		BlockNumber:       meta.Get("block.number").Uint(),
		HasIndexingErrors: meta.Get("hasIndexingErrors").Bool(),
	}, nil
}
