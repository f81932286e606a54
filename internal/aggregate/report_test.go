package aggregate

import (
	"encoding/json"
	"testing"

	"github.com/blackmichael/bluesense/internal/domain"
)

func TestNewReport(t *testing.T) {
	a := &domain.Analysis{
		ID:    "r-1",
		Query: "pizza",
		Posts: domain.ResultSet{
			post("great pizza tonight", 0.9),
			post("awful pizza", -0.7),
		},
		Counters: domain.Counters{Fetched: 2, Valid: 2},
	}

	r, err := NewReport(a)
	if err != nil {
		t.Fatalf("NewReport: %v", err)
	}
	if r.Outcome != domain.OutcomeAnalyzed {
		t.Fatalf("outcome = %q", r.Outcome)
	}
	if _, ok := r.Summary.(*Summary); !ok {
		t.Fatalf("summary = %T, want *Summary", r.Summary)
	}
	if _, ok := r.Terms.([]CategoryTerms); !ok {
		t.Fatalf("terms = %T, want []CategoryTerms", r.Terms)
	}
	// no post carries a timestamp
	if in, ok := r.Trend.(Insufficient); !ok || !in.InsufficientData || in.Message == "" {
		t.Fatalf("trend = %#v, want Insufficient", r.Trend)
	}
}

func TestNewReportEmptyJSON(t *testing.T) {
	r, err := NewReport(&domain.Analysis{ID: "r-2", Query: "nothing"})
	if err != nil {
		t.Fatalf("NewReport: %v", err)
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded["outcome"] != string(domain.OutcomeNoMatches) {
		t.Fatalf("outcome = %v", decoded["outcome"])
	}
	if posts, ok := decoded["posts"].([]any); !ok || len(posts) != 0 {
		t.Fatalf("posts = %#v, want empty array", decoded["posts"])
	}
	for _, key := range []string{"summary", "top_posts", "trend", "terms", "scatter", "histogram"} {
		section, ok := decoded[key].(map[string]any)
		if !ok || section["insufficient_data"] != true {
			t.Fatalf("%s = %#v, want insufficient_data", key, decoded[key])
		}
	}
}
