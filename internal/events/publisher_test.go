package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/blackmichael/bluesense/internal/domain"
)

type fakeConn struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return f.err
}

func TestAnalysisCompleted(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "bluesense")

	a := &domain.Analysis{
		ID:    "a-1",
		Query: "golang",
		Posts: domain.ResultSet{
			{Text: "great", Score: 0.8, Magnitude: 0.8, Category: domain.Positive},
			{Text: "meh", Score: 0, Category: domain.Neutral},
		},
		Counters:  domain.Counters{Fetched: 3, Valid: 2, SkippedVideos: 1},
		StartedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
	}

	if err := p.AnalysisCompleted(context.Background(), a); err != nil {
		t.Fatalf("AnalysisCompleted: %v", err)
	}
	if conn.subject != "bluesense.analysis.completed" {
		t.Fatalf("subject = %q", conn.subject)
	}

	var ev AnalysisCompletedEvent
	if err := json.Unmarshal(conn.data, &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev.ID != "a-1" || ev.Outcome != domain.OutcomeAnalyzed || ev.DurationMS != 1500 {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Summary == nil || ev.Summary.Total != 2 {
		t.Fatalf("summary = %+v", ev.Summary)
	}
}

func TestAnalysisCompletedWithoutPosts(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "dev")

	a := &domain.Analysis{ID: "a-2", Query: "nothing"}
	if err := p.AnalysisCompleted(context.Background(), a); err != nil {
		t.Fatalf("AnalysisCompleted: %v", err)
	}

	var ev AnalysisCompletedEvent
	if err := json.Unmarshal(conn.data, &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev.Outcome != domain.OutcomeNoMatches || ev.Summary != nil {
		t.Fatalf("event = %+v", ev)
	}
}

func TestAnalysisCompletedPublishError(t *testing.T) {
	boom := errors.New("connection closed")
	p := NewPublisher(&fakeConn{err: boom}, "bluesense")

	err := p.AnalysisCompleted(context.Background(), &domain.Analysis{ID: "a-3"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped publish error", err)
	}
}
