// Package publisher emits round and CAPA domain events to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	capamodels "roundwise/internal/capa/models"
	"roundwise/internal/evaluation/metrics"
	"roundwise/internal/evaluation/models"
	"roundwise/internal/platform/config"
	id "roundwise/pkg/domain"
	"roundwise/pkg/requestcontext"
)

// Producer is the slice of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Publisher struct {
	producer   Producer
	capaTopic  string
	roundTopic string
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// New builds a publisher. A nil producer disables publishing; every call
// then succeeds without sending.
func New(producer Producer, cfg config.KafkaConfig, opts ...Option) *Publisher {
	p := &Publisher{
		producer:   producer,
		capaTopic:  cfg.CapaTopic,
		roundTopic: cfg.RoundTopic,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RoundFinalized publishes one event for a submitted round.
func (p *Publisher) RoundFinalized(ctx context.Context, evaluatorID id.EvaluatorID, meta models.RoundMeta, snap models.FinalizedSnapshot) error {
	event := RoundFinalized{
		Header:               p.header(ctx, TypeRoundFinalized),
		RoundID:              snap.RoundID,
		Department:           meta.Department,
		FinalizedBy:          evaluatorID,
		CompletionPercentage: snap.CompletionPercentage,
		ItemCount:            len(snap.Evaluations),
		FinalizedAt:          snap.FinalizedAt,
	}
	rec, err := p.record(p.roundTopic, snap.RoundID, event.Type, event)
	if err != nil {
		return err
	}
	return p.send(ctx, rec)
}

// CapaDrafted publishes one event per newly created CAPA. Replayed commits
// were announced the first time and are skipped.
func (p *Publisher) CapaDrafted(ctx context.Context, committed []capamodels.Committed) error {
	var records []*kgo.Record
	for _, c := range committed {
		if !c.Created {
			continue
		}
		event := CapaDrafted{
			Header:        p.header(ctx, TypeCapaDrafted),
			CapaID:        c.ID,
			SourceRoundID: c.SourceRoundID,
			SourceItemID:  c.SourceItemID,
			Title:         c.Title,
			Department:    c.Department,
			Severity:      c.Severity,
			RiskLevel:     c.RiskLevel,
			TargetDate:    c.TargetDate,
			CreatedBy:     c.CreatedBy,
		}
		rec, err := p.record(p.capaTopic, c.SourceRoundID, event.Type, event)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	return p.send(ctx, records...)
}

func (p *Publisher) header(ctx context.Context, eventType string) Header {
	return Header{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: requestcontext.Now(ctx),
	}
}

// record keys by round id so every event of a round lands on one partition.
func (p *Publisher) record(topic string, roundID id.RoundID, eventType string, event any) (*kgo.Record, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", eventType, err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(roundID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}, nil
}

func (p *Publisher) send(ctx context.Context, records ...*kgo.Record) error {
	if p.producer == nil || len(records) == 0 {
		return nil
	}
	results := p.producer.ProduceSync(ctx, records...)

	var errs []error
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		errs = append(errs, fmt.Errorf("produce to %s: %w", r.Record.Topic, r.Err))
		if p.metrics != nil {
			p.metrics.IncEventPublishFailures()
		}
	}
	err := errors.Join(errs...)
	if err != nil && p.logger != nil {
		p.logger.ErrorContext(ctx, "event publish failed",
			"failed", len(errs),
			"total", len(records),
			"error", err,
		)
	}
	return err
}
