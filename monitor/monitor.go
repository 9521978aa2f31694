package monitor

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/streamingfast/defi-subgraphs/metrics"
	"go.uber.org/zap"
)

// ReportHeader starts every report posted by the monitor, previous reports
// are found and cleared by it.
const ReportHeader = "**Subgraph monitor**"

type Target struct {
	Name     string
	Network  string
	Endpoint string
}

// HeadFunc returns the current chain head of network.
type HeadFunc func(ctx context.Context, network string) (uint64, error)

type Monitor struct {
	Targets []Target
	Channel string
	// MaxLag is the number of blocks a subgraph may trail the chain head
	// before an alert is raised, used only when Head is set.
	MaxLag uint64
	Head   HeadFunc

	client  *http.Client
	discord *Discord
}

func New(client *http.Client, discord *Discord, channel string, targets []Target) *Monitor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Monitor{
		Targets: targets,
		Channel: channel,
		MaxLag:  1000,
		client:  client,
		discord: discord,
	}
}

// Alerts checks every target and returns one line per problem found.
func (m *Monitor) Alerts(ctx context.Context) []string {
	var alerts []string
	for _, target := range m.Targets {
		meta, err := FetchMeta(ctx, m.client, target.Endpoint)
		if err != nil {
			zlog.Warn("subgraph unreachable", zap.String("subgraph", target.Name), zap.Error(err))
			alerts = append(alerts, fmt.Sprintf("%s: query failed: %s", target.Name, err))
			continue
		}

		if meta.HasIndexingErrors {
			alerts = append(alerts, fmt.Sprintf("%s: indexing errors at block %d", target.Name, meta.BlockNumber))
		}

		if m.Head == nil {
			continue
		}
		head, err := m.Head(ctx, target.Network)
		if err != nil {
			zlog.Warn("unable to fetch chain head", zap.String("network", target.Network), zap.Error(err))
			continue
		}
		if head > meta.BlockNumber && head-meta.BlockNumber > m.MaxLag {
			alerts = append(alerts, fmt.Sprintf("%s: %d blocks behind head %d", target.Name, head-meta.BlockNumber, head))
		}
	}
	return alerts
}

// Check runs one monitoring pass: alerts are computed, previous reports
// cleared from the channel and a new report posted.
func (m *Monitor) Check(ctx context.Context) ([]string, error) {
	alerts := m.Alerts(ctx)
	metrics.MonitorAlerts.Set(float64(len(alerts)))

	messages, err := m.discord.Messages(ctx, m.Channel, 100)
	if err != nil {
		return alerts, err
	}

	var previous []string
	for _, message := range messages {
		if message.AuthorBot && strings.HasPrefix(message.Content, ReportHeader) {
			previous = append(previous, message.ID)
		}
	}
	if err := m.discord.BulkDelete(ctx, m.Channel, previous); err != nil {
		return alerts, err
	}

	for _, report := range Report(alerts, len(m.Targets)) {
		if _, err := m.discord.Post(ctx, m.Channel, report); err != nil {
			return alerts, err
		}
	}

	zlog.Info("monitor pass done", zap.Int("targets", len(m.Targets)), zap.Int("alerts", len(alerts)), zap.Int("cleared", len(previous)))
	return alerts, nil
}

// Report formats alerts into messages that each fit the Discord limit.
func Report(alerts []string, targets int) []string {
	if len(alerts) == 0 {
		return []string{fmt.Sprintf("%s\nall %d subgraphs healthy", ReportHeader, targets)}
	}

	var out []string
	current := ReportHeader
	for _, alert := range alerts {
		line := truncate("\n- "+alert, MaxMessageLength-len(ReportHeader))
		if len(current)+len(line) > MaxMessageLength {
			out = append(out, current)
			current = ReportHeader
		}
		current += line
	}
	return append(out, current)
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
