// Package events announces completed analyses on NATS.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/blackmichael/bluesense/internal/aggregate"
	"github.com/blackmichael/bluesense/internal/domain"
)

// SubjectAnalysisCompleted is appended to the subject prefix.
const SubjectAnalysisCompleted = "analysis.completed"

// Connect opens a NATS connection that reconnects indefinitely and logs
// connection state changes.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.Name("bluesense"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("nats connection closed")
		}),
	}

	nc, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return nc, nil
}

// publisher is the subset of *nats.Conn used here.
type publisher interface {
	Publish(subject string, data []byte) error
}

// Publisher sends analysis events.
type Publisher struct {
	conn    publisher
	subject string
}

// NewPublisher creates a publisher that sends on <prefix>.analysis.completed.
func NewPublisher(conn publisher, prefix string) *Publisher {
	return &Publisher{
		conn:    conn,
		subject: prefix + "." + SubjectAnalysisCompleted,
	}
}

// Subject returns the subject events are published on.
func (p *Publisher) Subject() string {
	return p.subject
}

// AnalysisCompletedEvent is the payload of an analysis.completed message.
type AnalysisCompletedEvent struct {
	ID         string             `json:"id"`
	Query      string             `json:"query"`
	Outcome    domain.Outcome     `json:"outcome"`
	Counters   domain.Counters    `json:"counters"`
	Summary    *aggregate.Summary `json:"summary,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	DurationMS int64              `json:"duration_ms"`
}

// NewAnalysisCompletedEvent summarizes a for publication. Summary is nil when
// the analysis produced no posts.
func NewAnalysisCompletedEvent(a *domain.Analysis) (AnalysisCompletedEvent, error) {
	ev := AnalysisCompletedEvent{
		ID:         a.ID,
		Query:      a.Query,
		Outcome:    a.Outcome(),
		Counters:   a.Counters,
		StartedAt:  a.StartedAt,
		DurationMS: a.Duration.Milliseconds(),
	}

	summary, err := aggregate.Summarize(a.Posts)
	switch {
	case err == nil:
		ev.Summary = summary
	case !errors.Is(err, aggregate.ErrInsufficientData):
		return ev, fmt.Errorf("summarize analysis: %w", err)
	}
	return ev, nil
}

// AnalysisCompleted publishes a summary of a.
func (p *Publisher) AnalysisCompleted(ctx context.Context, a *domain.Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ev, err := NewAnalysisCompletedEvent(a)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}
