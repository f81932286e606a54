package domain

import (
	"encoding/json"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		want  Category
	}{
		{1, Positive},
		{0.8, Positive},
		{0.2501, Positive},
		{0.25, Neutral},
		{0, Neutral},
		{-0.25, Neutral},
		{-0.2501, Negative},
		{-1, Negative},
	}
	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestClassifyMatchesThresholds(t *testing.T) {
	for i := -100; i <= 100; i++ {
		s := float64(i) / 100
		got := Classify(s)
		if (got == Positive) != (s > 0.25) {
			t.Fatalf("Classify(%v) = %v, positive iff s > 0.25", s, got)
		}
		if (got == Negative) != (s < -0.25) {
			t.Fatalf("Classify(%v) = %v, negative iff s < -0.25", s, got)
		}
	}
}

func TestCategoryText(t *testing.T) {
	data, err := json.Marshal(map[string]Category{"c": Negative})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"c":"Negative"}` {
		t.Fatalf("unexpected JSON %s", data)
	}

	var decoded map[string]Category
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["c"] != Negative {
		t.Fatalf("decoded %v, want Negative", decoded["c"])
	}

	if _, err := ParseCategory("Angry"); err == nil {
		t.Fatal("expected error for unknown label")
	}
	if _, err := Category(7).MarshalText(); err == nil {
		t.Fatal("expected error for invalid category")
	}
}
