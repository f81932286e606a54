package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/blackmichael/bluesense/internal/config"
	"github.com/blackmichael/bluesense/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if err := config.LoadDotEnv(); err != nil {
			c.configErr = err
			return
		}
		path := strings.TrimSpace(*c.configFlag)
		if path == "" {
			path = os.Getenv("BLUESENSE_CONFIG")
		}
		c.config, c.configErr = config.LoadFrom(path)
	})
	return c.config, c.configErr
}

// logger writes to stderr so stdout stays clean for tables and JSON. An
// explicit --log-level wins over the configured level.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = *c.logLevelFlag
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
}

func newRootCommand() *cobra.Command {
	var configFlag, logLevelFlag string
	ctx := &commandContext{configFlag: &configFlag, logLevelFlag: &logLevelFlag}

	rootCmd := &cobra.Command{
		Use:           "bluesense",
		Short:         "Sentiment analysis of Bluesky posts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd == cmd.Root() {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (defaults to $BLUESENSE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (defaults to the configured level)")

	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))

	return rootCmd
}
