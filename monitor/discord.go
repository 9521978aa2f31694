package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	DiscordAPI = "https://discord.com/api/v10"

	// bulk delete accepts between 2 and 100 ids, none older than two weeks
	maxBulkDelete    = 100
	bulkDeleteMaxAge = 14*24*time.Hour - time.Minute

	// discordEpoch is the millisecond offset of snowflake timestamps.
	discordEpoch = 1420070400000

	// MaxMessageLength is the Discord limit on a message content.
	MaxMessageLength = 2000
)

type Message struct {
	ID        string
	Content   string
	AuthorID  string
	AuthorBot bool
}

// Discord is a minimal bot client for the channel REST endpoints.
type Discord struct {
	BaseURL string

	client *http.Client
	token  string
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

func NewDiscord(client *http.Client, token string) *Discord {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Discord{
		BaseURL: DiscordAPI,
		client:  client,
		token:   token,
		sleep:   sleepContext,
		now:     time.Now,
	}
}

// Messages returns up to limit of the most recent messages of channel.
func (d *Discord) Messages(ctx context.Context, channel string, limit int) ([]Message, error) {
	content, err := d.do(ctx, http.MethodGet, fmt.Sprintf("/channels/%s/messages?limit=%d", channel, limit), nil)
	if err != nil {
		return nil, fmt.Errorf("listing messages of %s: %w", channel, err)
	}

	var out []Message
	gjson.ParseBytes(content).ForEach(func(_, value gjson.Result) bool {
		out = append(out, Message{
			ID:        value.Get("id").String(),
			Content:   value.Get("content").String(),
			AuthorID:  value.Get("author.id").String(),
			AuthorBot: value.Get("author.bot").Bool(),
		})
		return true
	})
	return out, nil
}

// Post sends content to channel and returns the new message id.
func (d *Discord) Post(ctx context.Context, channel, content string) (string, error) {
	if len(content) > MaxMessageLength {
		return "", fmt.Errorf("message of %d characters exceeds the %d limit", len(content), MaxMessageLength)
	}

	resp, err := d.do(ctx, http.MethodPost, fmt.Sprintf("/channels/%s/messages", channel), map[string]interface{}{"content": content})
	if err != nil {
		return "", fmt.Errorf("posting to %s: %w", channel, err)
	}
	return gjson.GetBytes(resp, "id").String(), nil
}

// BulkDelete removes messages from channel. A single id, and any message too
// old for the bulk endpoint, goes through the single message endpoint.
func (d *Discord) BulkDelete(ctx context.Context, channel string, ids []string) error {
	var recent []string
	for _, id := range ids {
		created, err := SnowflakeTime(id)
		if err == nil && d.now().Sub(created) < bulkDeleteMaxAge {
			recent = append(recent, id)
			continue
		}
		if err := d.delete(ctx, channel, id); err != nil {
			return err
		}
	}

	for len(recent) > 0 {
		n := len(recent)
		if n > maxBulkDelete {
			n = maxBulkDelete
		}
		chunk := recent[:n]
		recent = recent[n:]

		if len(chunk) == 1 {
			if err := d.delete(ctx, channel, chunk[0]); err != nil {
				return err
			}
			continue
		}

		if _, err := d.do(ctx, http.MethodPost, fmt.Sprintf("/channels/%s/messages/bulk-delete", channel), map[string]interface{}{"messages": chunk}); err != nil {
			return fmt.Errorf("bulk deleting %d messages: %w", len(chunk), err)
		}
	}
	return nil
}

func (d *Discord) delete(ctx context.Context, channel, id string) error {
	if _, err := d.do(ctx, http.MethodDelete, fmt.Sprintf("/channels/%s/messages/%s", channel, id), nil); err != nil {
		return fmt.Errorf("deleting message %s: %w", id, err)
	}
	return nil
}

// SnowflakeTime returns the creation time encoded in a Discord id.
func SnowflakeTime(id string) (time.Time, error) {
	value, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid snowflake %q: %w", id, err)
	}
	return time.UnixMilli(int64(value>>22) + discordEpoch), nil
}

// do runs a request, retrying once after the advertised delay when rate
// limited.
func (d *Discord) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("encoding payload: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		status, content, header, err := d.send(ctx, method, path, body)
		if err != nil {
			return nil, err
		}

		if status == http.StatusTooManyRequests && attempt == 0 {
			wait := retryAfter(content, header)
			zlog.Info("rate limited by discord", zap.String("path", path), zap.Duration("retry_after", wait))
			if err := d.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		if status < 200 || status >= 300 {
			return nil, fmt.Errorf("%s %s: status %d: %s", method, path, status, gjson.GetBytes(content, "message").String())
		}
		return content, nil
	}
}

func (d *Discord) send(ctx context.Context, method, path string, body []byte) (int, []byte, http.Header, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.BaseURL+path, reader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+d.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, content, resp.Header, nil
}

// retryAfter reads the delay in seconds from the body, then from the
// Retry-After header, defaulting to one second.
func retryAfter(content []byte, header http.Header) time.Duration {
	if value := gjson.GetBytes(content, "retry_after"); value.Exists() {
		return time.Duration(value.Float() * float64(time.Second))
	}
	if seconds, err := strconv.ParseFloat(header.Get("Retry-After"), 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	return time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
