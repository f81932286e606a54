package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var envKeys = []string{
	"LOG_LEVEL", "LOG_FORMAT",
	"BSKY_USERNAME", "BSKY_PASSWORD", "BSKY_PDS", "BSKY_APPVIEW",
	"GOOGLE_LANGUAGE_API_KEY", "GOOGLE_LANGUAGE_ENDPOINT",
	"ANALYSIS_LIMIT", "ANALYSIS_FETCH_MULTIPLIER", "ANALYSIS_CONCURRENCY",
	"BLUESENSE_CONFIG",
}

const searchResponse = `{"posts":[
	{"uri":"at://1","author":{"handle":"alice.bsky.social","displayName":"Alice"},"record":{"text":"I love this wonderful coffee","createdAt":"2025-01-01T10:00:00Z"},"indexedAt":"2025-01-01T10:00:05Z"},
	{"uri":"at://2","author":{"handle":"bob.bsky.social"},"record":{"text":"This coffee is terrible and cold","createdAt":"2025-01-01T11:00:00Z"},"indexedAt":"2025-01-01T11:00:05Z"},
	{"uri":"at://3","record":{"text":"coffee video"},"embed":{"$type":"app.bsky.embed.video#view"}}
]}`

// fakeProviders starts a search AppView and a sentiment endpoint and writes
// a config file pointing at them.
func fakeProviders(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	appView := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchResponse))
	}))
	t.Cleanup(appView.Close)

	nl := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Document struct {
				Content string `json:"content"`
			} `json:"document"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		score := 0.1
		switch {
		case strings.Contains(req.Document.Content, "love"):
			score = 0.9
		case strings.Contains(req.Document.Content, "terrible"):
			score = -0.8
		}
		fmt.Fprintf(w, `{"documentSentiment":{"score":%g,"magnitude":%g}}`, score, score*score)
	}))
	t.Cleanup(nl.Close)

	path := filepath.Join(dir, "bluesense.toml")
	content := fmt.Sprintf(`
[bluesky]
appview = %q

[language]
api_key = "test-key"
endpoint = %q
`, appView.URL, nl.URL)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestAnalyzeTable(t *testing.T) {
	path := fakeProviders(t)

	out, errOut, err := execute(t, "analyze", "--config", path, "coffee")
	if err != nil {
		t.Fatalf("analyze: %v\nstderr: %s", err, errOut)
	}

	for _, want := range []string{"Sentiment", "Most positive", "Most negative", "Sentiment over time", "Common terms", "Score distribution", "Alice"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(errOut, "Fetched 3 posts") || !strings.Contains(errOut, "Kept 2 of 3") {
		t.Errorf("progress missing from stderr:\n%s", errOut)
	}
}

func TestAnalyzeJSON(t *testing.T) {
	path := fakeProviders(t)

	out, errOut, err := execute(t, "analyze", "-c", path, "--json", "-n", "10", "coffee")
	if err != nil {
		t.Fatalf("analyze: %v\nstderr: %s", err, errOut)
	}

	var report struct {
		Query   string            `json:"query"`
		Outcome string            `json:"outcome"`
		Posts   []json.RawMessage `json:"posts"`
		Trend   json.RawMessage   `json:"trend"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Query != "coffee" || report.Outcome != "analyzed" || len(report.Posts) != 2 {
		t.Fatalf("report = %+v", report)
	}
	if strings.Contains(errOut, "Fetched") {
		t.Errorf("progress printed in JSON mode:\n%s", errOut)
	}
}

func TestAnalyzeRejectsLimit(t *testing.T) {
	path := fakeProviders(t)

	for _, limit := range []string{"0", "501"} {
		if _, _, err := execute(t, "analyze", "-c", path, "-n", limit, "coffee"); err == nil {
			t.Errorf("limit %s: expected error", limit)
		}
	}
}

func TestAnalyzeRequiresKeyword(t *testing.T) {
	path := fakeProviders(t)

	if _, _, err := execute(t, "analyze", "-c", path); err == nil {
		t.Fatal("expected error without keyword")
	}
}

func TestCheck(t *testing.T) {
	path := fakeProviders(t)

	out, errOut, err := execute(t, "check", "-c", path)
	if err != nil {
		t.Fatalf("check: %v\nstderr: %s\nstdout: %s", err, errOut, out)
	}
	if strings.Contains(out, "FAIL") || strings.Count(out, "OK") != 3 {
		t.Fatalf("unexpected check output:\n%s", out)
	}
}

func TestCheckReportsFailure(t *testing.T) {
	path := fakeProviders(t)
	t.Setenv("GOOGLE_LANGUAGE_ENDPOINT", "http://127.0.0.1:1")

	out, _, err := execute(t, "check", "-c", path)
	if err != errChecksFailed {
		t.Fatalf("err = %v, want errChecksFailed", err)
	}
	if !strings.Contains(out, "FAIL") {
		t.Fatalf("expected a failed row:\n%s", out)
	}
}

func TestPreview(t *testing.T) {
	got := preview("line one\n\nline   two")
	if got != "line one line two" {
		t.Fatalf("preview = %q", got)
	}
	if long := preview(strings.Repeat("a", 200)); len([]rune(long)) > postPreviewWidth {
		t.Fatalf("preview not shortened: %d runes", len([]rune(long)))
	}
}

func TestLogLevelFollowsConfigUnlessFlagged(t *testing.T) {
	path := fakeProviders(t)
	t.Setenv("LOG_LEVEL", "error")
	const warning = "bluesky credentials not set"

	_, errOut, err := execute(t, "analyze", "-c", path, "--json", "coffee")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if strings.Contains(errOut, warning) {
		t.Fatalf("LOG_LEVEL=error still logged a warning:\n%s", errOut)
	}

	_, errOut, err = execute(t, "analyze", "-c", path, "--json", "--log-level", "warn", "coffee")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(errOut, warning) {
		t.Fatalf("--log-level warn did not log the warning:\n%s", errOut)
	}
}
