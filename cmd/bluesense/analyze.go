package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackmichael/bluesense/internal/aggregate"
	"github.com/blackmichael/bluesense/internal/app"
	"github.com/blackmichael/bluesense/internal/config"
	"github.com/blackmichael/bluesense/internal/domain"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <keyword>",
		Short: "Search Bluesky for a keyword and analyze the sentiment of matching posts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.Analysis.Limit
			}
			if limit < 1 || limit > config.MaxAnalysisLimit {
				return fmt.Errorf("--limit must be between 1 and %d", config.MaxAnalysisLimit)
			}

			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			ingestor, err := app.NewIngestor(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			var progress domain.ProgressFunc
			if !jsonOutput {
				progress = progressPrinter(cmd)
			}

			analysis, err := ingestor.RunWithProgress(cmd.Context(), query, limit, progress)
			if err != nil {
				return err
			}

			if jsonOutput {
				report, err := aggregate.NewReport(analysis)
				if err != nil {
					return err
				}
				return writeJSON(cmd, report)
			}
			return renderAnalysis(cmd.OutOrStdout(), analysis)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", domain.DefaultLimit, "Maximum number of posts to analyze")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full report as JSON")

	return cmd
}

// progressPrinter reports pipeline stages on stderr.
func progressPrinter(cmd *cobra.Command) domain.ProgressFunc {
	w := cmd.ErrOrStderr()
	return func(p domain.Progress) {
		switch p.Stage {
		case domain.StageFetched:
			fmt.Fprintf(w, "Fetched %d posts\n", p.Done)
		case domain.StageFiltered:
			fmt.Fprintf(w, "Kept %d of %d posts after filtering\n", p.Done, p.Total)
		case domain.StageScored:
			if p.Done == p.Total {
				fmt.Fprintf(w, "Scored %d posts\n", p.Done)
			}
		}
	}
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
