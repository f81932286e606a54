package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blackmichael/bluesense/internal/config"
	"github.com/blackmichael/bluesense/internal/logging"
)

func TestNewIngestorEndToEnd(t *testing.T) {
	appView := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"posts":[
			{"uri":"at://1","record":{"text":"I love this!"},"indexedAt":"2025-01-01T00:00:00Z"},
			{"uri":"at://2","record":{"text":"watch"},"embed":{"$type":"app.bsky.embed.video#view"}}
		]}`))
	}))
	defer appView.Close()

	nl := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing API key")
		}
		w.Write([]byte(`{"documentSentiment":{"score":0.8,"magnitude":0.8}}`))
	}))
	defer nl.Close()

	cfg := config.Default()
	cfg.Bluesky.AppView = appView.URL
	cfg.Language.Endpoint = nl.URL
	cfg.Language.APIKey = "test-key"

	ingestor, err := NewIngestor(context.Background(), &cfg, logging.Discard())
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}

	a, err := ingestor.Run(context.Background(), "love", 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(a.Posts) != 1 || a.Posts[0].CleanedText != "I love this" || a.Counters.SkippedVideos != 1 {
		t.Fatalf("analysis = %+v", a)
	}
}

func TestNewBlueskyClientLoginFailure(t *testing.T) {
	pds := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"AuthenticationRequired"}`, http.StatusUnauthorized)
	}))
	defer pds.Close()

	cfg := config.Default()
	cfg.Bluesky.PDS = pds.URL
	cfg.Bluesky.Username = "alice.bsky.social"
	cfg.Bluesky.Password = "bad"

	if _, err := NewBlueskyClient(context.Background(), &cfg, logging.Discard()); err == nil {
		t.Fatal("expected login error")
	}
}
