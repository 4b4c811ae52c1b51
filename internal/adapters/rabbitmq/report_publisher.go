package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"listam-parser-service/internal/constants"
	"listam-parser-service/internal/contextkeys"
	"listam-parser-service/internal/contracts"
	"listam-parser-service/internal/core/domain"
	"listam-parser-service/internal/core/port"
	"listam-parser-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type PageReportDTO struct {
	EventID        string    `json:"event_id"`
	TraceID        string    `json:"trace_id"`
	Page           int       `json:"page"`
	LinksFound     int       `json:"links_found"`
	ListingsParsed int       `json:"listings_parsed"`
	ListingsFailed int       `json:"listings_failed"`
	ListingsSaved  int       `json:"listings_saved"`
	ImagesSaved    int       `json:"images_saved"`
	Failed         bool      `json:"failed"`
	FailureStage   string    `json:"failure_stage,omitempty"`
	ReportedAt     time.Time `json:"reported_at"`
}

type ScrapeReportDTO struct {
	EventID        string    `json:"event_id"`
	TraceID        string    `json:"trace_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	PagesProcessed int       `json:"pages_processed"`
	PagesFailed    int       `json:"pages_failed"`
	LinksFound     int       `json:"links_found"`
	ListingsSaved  int       `json:"listings_saved"`
	ListingsFailed int       `json:"listings_failed"`
	ImagesSaved    int       `json:"images_saved"`
}

type CheckReportDTO struct {
	EventID       string    `json:"event_id"`
	TraceID       string    `json:"trace_id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Checked       int       `json:"checked"`
	Removed       int       `json:"removed"`
	ProbeFailures int       `json:"probe_failures"`
}

type messagePublisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// ReportPublisherAdapter реализует ReportPublisherPort поверх RabbitMQ.
// Каждое сообщение проверяется по JSON-схеме перед отправкой.
type ReportPublisherAdapter struct {
	producer messagePublisher
	now      func() time.Time
}

func NewReportPublisherAdapter(producer *rabbitmq_producer.Publisher) (*ReportPublisherAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	return newReportPublisher(producer), nil
}

func newReportPublisher(producer messagePublisher) *ReportPublisherAdapter {
	return &ReportPublisherAdapter{producer: producer, now: time.Now}
}

func (a *ReportPublisherAdapter) PublishPageReport(ctx context.Context, stats domain.PageStats) error {
	dto := PageReportDTO{
		EventID:        uuid.NewString(),
		TraceID:        contextkeys.TraceIDFromContext(ctx),
		Page:           stats.Page,
		LinksFound:     stats.LinksFound,
		ListingsParsed: stats.ListingsParsed,
		ListingsFailed: stats.ListingsFailed,
		ListingsSaved:  stats.ListingsSaved,
		ImagesSaved:    stats.ImagesSaved,
		Failed:         stats.Failed,
		FailureStage:   stats.FailureStage,
		ReportedAt:     a.now().UTC(),
	}
	return a.publish(ctx, constants.RoutingKeyPageReports, contracts.PageReportEvent, dto)
}

func (a *ReportPublisherAdapter) PublishScrapeReport(ctx context.Context, stats domain.ScrapeRunStats) error {
	dto := ScrapeReportDTO{
		EventID:        uuid.NewString(),
		TraceID:        stats.TraceID,
		StartedAt:      stats.StartedAt.UTC(),
		FinishedAt:     stats.FinishedAt.UTC(),
		PagesProcessed: stats.PagesProcessed,
		PagesFailed:    stats.PagesFailed,
		LinksFound:     stats.LinksFound,
		ListingsSaved:  stats.ListingsSaved,
		ListingsFailed: stats.ListingsFailed,
		ImagesSaved:    stats.ImagesSaved,
	}
	return a.publish(ctx, constants.RoutingKeyScrapeReports, contracts.ScrapeReportEvent, dto)
}

func (a *ReportPublisherAdapter) PublishCheckReport(ctx context.Context, stats domain.CheckRunStats) error {
	dto := CheckReportDTO{
		EventID:       uuid.NewString(),
		TraceID:       stats.TraceID,
		StartedAt:     stats.StartedAt.UTC(),
		FinishedAt:    stats.FinishedAt.UTC(),
		Checked:       stats.Checked,
		Removed:       stats.Removed,
		ProbeFailures: stats.ProbeFailures,
	}
	return a.publish(ctx, constants.RoutingKeyCheckReports, contracts.CheckReportEvent, dto)
}

func (a *ReportPublisherAdapter) publish(ctx context.Context, routingKey, eventType string, dto interface{}) error {
	adapterLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "ReportPublisherAdapter",
		"routing_key": routingKey,
		"event_type":  eventType,
	})

	body, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to marshal %s: %w", eventType, err)
	}
	if err := contracts.ValidateEvent(eventType, contracts.EventVersion, body); err != nil {
		adapterLogger.Error("Report does not match its schema", err, nil)
		return fmt.Errorf("rabbitmq adapter: invalid %s: %w", eventType, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    a.now(),
		Headers: amqp.Table{
			"event-type":    eventType,
			"event-version": contracts.EventVersion,
		},
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.producer.Publish(publishCtx, routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish report", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish %s: %w", eventType, err)
	}

	adapterLogger.Debug("Report published", nil)
	return nil
}

// NoopReportPublisher используется, когда RabbitMQ отключен
type NoopReportPublisher struct{}

func (NoopReportPublisher) PublishPageReport(ctx context.Context, stats domain.PageStats) error {
	return nil
}

func (NoopReportPublisher) PublishScrapeReport(ctx context.Context, stats domain.ScrapeRunStats) error {
	return nil
}

func (NoopReportPublisher) PublishCheckReport(ctx context.Context, stats domain.CheckRunStats) error {
	return nil
}
