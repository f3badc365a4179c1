package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwygoda/questions/internal/adapter/prober"
	"github.com/cwygoda/questions/internal/config"
	"github.com/cwygoda/questions/internal/domain"
	"github.com/cwygoda/questions/internal/logging"
)

// app carries state shared by all subcommands once the root command has
// loaded configuration.
type app struct {
	cfgPath  string
	logLevel string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "questions",
		Short: "Divisor, triangle and link-check questions over HTTP",
		Long: `questions answers a small set of computational questions: positive
divisors, triangle area, most common integers, group-by and link checking.

Run "questions serve" to expose them over HTTP, or use the one-shot
subcommands from the shell.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default $XDG_CONFIG_HOME/questions/config.toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(a),
		newDivisorsCmd(a),
		newCheckLinksCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) linkChecker() *domain.LinkChecker {
	links := a.cfg.Links
	client := prober.NewClient(links.ProbeTimeout, links.FollowRedirects)
	p := prober.New(client, links.UserAgent, a.logger.Named("prober"))
	return domain.NewLinkChecker(p, links.ProbeTimeout, links.MaxConcurrency)
}
