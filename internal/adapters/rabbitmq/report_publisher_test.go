package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"listam-parser-service/internal/constants"
	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/contracts"
	"listam-parser-service/internal/core/domain"
	"listam-parser-service/internal/core/port"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	routingKey string
	msg        amqp.Publishing
	deadline   bool
}

type recordingPublisher struct {
	messages []published
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	_, hasDeadline := ctx.Deadline()
	p.messages = append(p.messages, published{routingKey: routingKey, msg: msg, deadline: hasDeadline})
	return p.err
}

func fixedNow() time.Time { return time.Date(2025, 12, 7, 10, 0, 0, 0, time.UTC) }

func TestPublishPageReport(t *testing.T) {
	rec := &recordingPublisher{}
	adapter := newReportPublisher(rec)
	adapter.now = fixedNow

	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-1")
	err := adapter.PublishPageReport(ctx, domain.PageStats{
		Page: 2, LinksFound: 5, ListingsParsed: 4, ListingsFailed: 1, ListingsSaved: 4,
	})
	require.NoError(t, err)
	require.Len(t, rec.messages, 1)

	got := rec.messages[0]
	assert.Equal(t, constants.RoutingKeyPageReports, got.routingKey)
	assert.True(t, got.deadline)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, "trace-1", got.msg.Headers["x-trace-id"])
	assert.Equal(t, contracts.PageReportEvent, got.msg.Headers["event-type"])

	var dto PageReportDTO
	require.NoError(t, json.Unmarshal(got.msg.Body, &dto))
	assert.Equal(t, 2, dto.Page)
	assert.Equal(t, 4, dto.ListingsSaved)
	assert.Equal(t, "trace-1", dto.TraceID)
	assert.NotEmpty(t, dto.EventID)
	assert.True(t, dto.ReportedAt.Equal(fixedNow()))
}

func TestPublishPageReport_FailedPage(t *testing.T) {
	rec := &recordingPublisher{}
	adapter := newReportPublisher(rec)

	err := adapter.PublishPageReport(context.Background(), domain.PageStats{
		Page: 1, Failed: true, FailureStage: domain.StageDiscover,
	})
	require.NoError(t, err)
	require.Len(t, rec.messages, 1)
	_, hasTrace := rec.messages[0].msg.Headers["x-trace-id"]
	assert.False(t, hasTrace)
}

func TestPublishPageReport_InvalidStatsRejected(t *testing.T) {
	rec := &recordingPublisher{}
	adapter := newReportPublisher(rec)

	err := adapter.PublishPageReport(context.Background(), domain.PageStats{Page: 0})
	require.Error(t, err)
	assert.Empty(t, rec.messages)
}

func TestPublishScrapeAndCheckReports(t *testing.T) {
	rec := &recordingPublisher{}
	adapter := newReportPublisher(rec)
	start := fixedNow()

	require.NoError(t, adapter.PublishScrapeReport(context.Background(), domain.ScrapeRunStats{
		TraceID: "run", StartedAt: start, FinishedAt: start.Add(time.Minute),
		PagesProcessed: 3, PagesFailed: 1, LinksFound: 20, ListingsSaved: 18, ListingsFailed: 2,
	}))
	require.NoError(t, adapter.PublishCheckReport(context.Background(), domain.CheckRunStats{
		TraceID: "check", StartedAt: start, FinishedAt: start.Add(time.Minute),
		Checked: 100, Removed: 7, ProbeFailures: 1,
	}))

	require.Len(t, rec.messages, 2)
	assert.Equal(t, constants.RoutingKeyScrapeReports, rec.messages[0].routingKey)
	assert.Equal(t, constants.RoutingKeyCheckReports, rec.messages[1].routingKey)

	var check CheckReportDTO
	require.NoError(t, json.Unmarshal(rec.messages[1].msg.Body, &check))
	assert.Equal(t, 7, check.Removed)
	assert.Equal(t, "check", check.TraceID)
}

func TestPublish_ProducerError(t *testing.T) {
	rec := &recordingPublisher{err: errors.New("channel closed")}
	adapter := newReportPublisher(rec)

	err := adapter.PublishCheckReport(context.Background(), domain.CheckRunStats{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}

func TestNewReportPublisherAdapter_NilProducer(t *testing.T) {
	_, err := NewReportPublisherAdapter(nil)
	assert.Error(t, err)
}

func TestNoopReportPublisher(t *testing.T) {
	var p port.ReportPublisherPort = NoopReportPublisher{}
	assert.NoError(t, p.PublishPageReport(context.Background(), domain.PageStats{}))
	assert.NoError(t, p.PublishScrapeReport(context.Background(), domain.ScrapeRunStats{}))
	assert.NoError(t, p.PublishCheckReport(context.Background(), domain.CheckRunStats{}))
}

type capturingLogger struct {
	last   string
	fields port.Fields
	err    error
}

func (l *capturingLogger) Info(msg string, fields port.Fields)  { l.last, l.fields = msg, fields }
func (l *capturingLogger) Warn(msg string, fields port.Fields)  { l.last, l.fields = msg, fields }
func (l *capturingLogger) Debug(msg string, fields port.Fields) { l.last, l.fields = msg, fields }
func (l *capturingLogger) Error(msg string, err error, fields port.Fields) {
	l.last, l.err, l.fields = msg, err, fields
}
func (l *capturingLogger) WithFields(fields port.Fields) port.LoggerPort { return l }

func TestPkgLoggerBridge(t *testing.T) {
	inner := &capturingLogger{}
	bridge := NewPkgLoggerBridge(inner)

	bridge.Info("connected", "url", "amqp://x", 42, "kept", "dangling")
	assert.Equal(t, "connected", inner.last)
	assert.Equal(t, port.Fields{"url": "amqp://x", "42": "kept", "extra": "dangling"}, inner.fields)

	bridge.Debug("no fields")
	assert.Nil(t, inner.fields)

	boom := errors.New("boom")
	bridge.Error(boom, "failed", "attempt", 2)
	assert.Equal(t, boom, inner.err)
	assert.Equal(t, port.Fields{"attempt": 2}, inner.fields)
}
