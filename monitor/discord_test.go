package monitor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

func newTestDiscord(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Discord, *[]recordedRequest, *[]time.Duration) {
	t.Helper()

	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bot secret", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		requests = append(requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	var sleeps []time.Duration
	d := NewDiscord(server.Client(), "secret")
	d.BaseURL = server.URL
	d.sleep = func(ctx context.Context, wait time.Duration) error {
		sleeps = append(sleeps, wait)
		return nil
	}
	return d, &requests, &sleeps
}

func TestDiscord_Messages(t *testing.T) {
	d, requests, _ := newTestDiscord(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"id":"1","content":"hello","author":{"id":"9","bot":true}},{"id":"2","content":"hi","author":{"id":"8"}}]`))
	})

	messages, err := d.Messages(context.Background(), "chan", 50)
	require.NoError(t, err)
	assert.Equal(t, []Message{
		{ID: "1", Content: "hello", AuthorID: "9", AuthorBot: true},
		{ID: "2", Content: "hi", AuthorID: "8"},
	}, messages)
	assert.Equal(t, "/channels/chan/messages", (*requests)[0].Path)
}

func TestDiscord_Post(t *testing.T) {
	d, requests, _ := newTestDiscord(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"42"}`))
	})

	id, err := d.Post(context.Background(), "chan", "report")
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.JSONEq(t, `{"content":"report"}`, (*requests)[0].Body)

	_, err = d.Post(context.Background(), "chan", strings.Repeat("x", MaxMessageLength+1))
	assert.Error(t, err)
	assert.Len(t, *requests, 1)
}

func snowflake(created time.Time) string {
	return strconv.FormatUint(uint64(created.UnixMilli()-discordEpoch)<<22, 10)
}

func TestSnowflakeTime(t *testing.T) {
	created, err := SnowflakeTime("175928847299117063")
	require.NoError(t, err)
	assert.Equal(t, int64(1462015105796), created.UnixMilli())

	now := time.UnixMilli(1_700_000_000_000)
	created, err = SnowflakeTime(snowflake(now))
	require.NoError(t, err)
	assert.True(t, now.Equal(created))

	_, err = SnowflakeTime("abc")
	assert.Error(t, err)
}

func TestDiscord_BulkDelete(t *testing.T) {
	d, requests, _ := newTestDiscord(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	now := time.UnixMilli(1_700_000_000_000)
	d.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, d.BulkDelete(ctx, "chan", nil))
	assert.Empty(t, *requests)

	single := snowflake(now.Add(-time.Hour))
	require.NoError(t, d.BulkDelete(ctx, "chan", []string{single}))
	assert.Equal(t, recordedRequest{Method: http.MethodDelete, Path: "/channels/chan/messages/" + single}, (*requests)[0])

	recent := []string{snowflake(now.Add(-3 * time.Minute)), snowflake(now.Add(-2 * time.Minute)), snowflake(now.Add(-time.Minute))}
	require.NoError(t, d.BulkDelete(ctx, "chan", recent))
	last := (*requests)[1]
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "/channels/chan/messages/bulk-delete", last.Path)

	var payload struct{ Messages []string }
	require.NoError(t, json.Unmarshal([]byte(last.Body), &payload))
	assert.Equal(t, recent, payload.Messages)
}

func TestDiscord_BulkDeleteSkipsOldMessages(t *testing.T) {
	d, requests, _ := newTestDiscord(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	now := time.UnixMilli(1_700_000_000_000)
	d.now = func() time.Time { return now }

	old := snowflake(now.Add(-15 * 24 * time.Hour))
	recent := []string{snowflake(now.Add(-2 * time.Hour)), snowflake(now.Add(-time.Hour))}
	require.NoError(t, d.BulkDelete(context.Background(), "chan", []string{old, recent[0], recent[1]}))

	require.Len(t, *requests, 2)
	assert.Equal(t, recordedRequest{Method: http.MethodDelete, Path: "/channels/chan/messages/" + old}, (*requests)[0])
	assert.Equal(t, "/channels/chan/messages/bulk-delete", (*requests)[1].Path)
	assert.Contains(t, (*requests)[1].Body, recent[0])
	assert.NotContains(t, (*requests)[1].Body, old)
}

func TestDiscord_RetriesOnceWhenRateLimited(t *testing.T) {
	calls := 0
	d, _, sleeps := newTestDiscord(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message":"You are being rate limited.","retry_after":0.5}`))
			return
		}
		w.Write([]byte(`{"id":"1"}`))
	})

	_, err := d.Post(context.Background(), "chan", "report")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, *sleeps)
}

func TestDiscord_GivesUpAfterSecondRateLimit(t *testing.T) {
	calls := 0
	d, _, sleeps := newTestDiscord(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := d.Post(context.Background(), "chan", "report")
	assert.ErrorContains(t, err, "429")
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{2 * time.Second}, *sleeps)
}
