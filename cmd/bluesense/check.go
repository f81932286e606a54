package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/blackmichael/bluesense/internal/app"
	"github.com/blackmichael/bluesense/internal/bluesky"
	"github.com/blackmichael/bluesense/internal/config"
)

const (
	checkQuery = "test"
	checkText  = "Hello, world!"
)

var errChecksFailed = errors.New("one or more connection checks failed")

type checkResult struct {
	name   string
	ok     bool
	detail string
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Test the Bluesky and Natural Language connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			results := runChecks(cmd.Context(), cfg, logger)
			renderChecks(cmd.OutOrStdout(), results)
			for _, r := range results {
				if !r.ok {
					return errChecksFailed
				}
			}
			return nil
		},
	}
}

// runChecks exercises authentication (when configured), a one-post search
// and one sentiment request.
func runChecks(ctx context.Context, cfg *config.Config, logger *slog.Logger) []checkResult {
	var results []checkResult

	client, err := app.NewBlueskyClient(ctx, cfg, logger)
	switch {
	case err != nil:
		results = append(results, checkResult{name: "Bluesky authentication", detail: err.Error()})
		client = nil
	case cfg.HasBlueskyCredentials():
		results = append(results, checkResult{name: "Bluesky authentication", ok: true, detail: "logged in as " + client.Handle()})
	default:
		results = append(results, checkResult{name: "Bluesky authentication", ok: true, detail: "skipped, no credentials set"})
	}

	if client != nil {
		results = append(results, checkSearch(ctx, client))
	} else {
		results = append(results, checkResult{name: "Bluesky search", detail: "skipped, authentication failed"})
	}

	oracle, err := app.NewLanguageClient(ctx, cfg)
	if err != nil {
		return append(results, checkResult{name: "Sentiment analysis", detail: err.Error()})
	}
	sentiment, err := oracle.AnalyzeSentiment(ctx, checkText)
	if err != nil {
		return append(results, checkResult{name: "Sentiment analysis", detail: err.Error()})
	}
	return append(results, checkResult{
		name:   "Sentiment analysis",
		ok:     true,
		detail: fmt.Sprintf("score %.2f, magnitude %.2f", sentiment.Score, sentiment.Magnitude),
	})
}

func checkSearch(ctx context.Context, client *bluesky.Client) checkResult {
	posts, err := client.SearchPosts(ctx, checkQuery, 1)
	if err != nil {
		return checkResult{name: "Bluesky search", detail: err.Error()}
	}
	return checkResult{name: "Bluesky search", ok: true, detail: fmt.Sprintf("%d post returned", len(posts))}
}

func renderChecks(w io.Writer, results []checkResult) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "OK"
		if !r.ok {
			status = "FAIL"
		}
		rows = append(rows, []string{r.name, status, r.detail})
	}
	fmt.Fprint(w, renderTable("Connection checks", []string{"Check", "Status", "Detail"}, rows, nil))
}
