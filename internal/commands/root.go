// Package commands wires the tracker CLI: the web UI server and the
// terminal subcommands that read and mutate the same ledger.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tracker/internal/amqp"
	"tracker/internal/backend"
	"tracker/internal/cli"
	"tracker/internal/config"
	"tracker/internal/ledger"
	"tracker/internal/log"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// app carries what every subcommand needs. Tests fill it in directly and
// skip the environment.
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	prompter Prompter
	// logOut receives log lines; stdout is kept for command output.
	logOut io.Writer
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{prompter: NewTerminalPrompter(), logOut: os.Stderr})
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tracker",
		Short:   "Local expense tracker",
		Long:    "Track income and expenses in a local ledger, from the terminal or a small web UI.",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	rootCmd.AddCommand(
		newServeCommand(a),
		newAddCommand(a),
		newRmCommand(a),
		newLsCommand(a),
		newSummaryCommand(a),
	)
	return rootCmd
}

func (a *app) init() error {
	if a.cfg == nil {
		cli.LoadEnvFile()
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.logger == nil {
		a.logger = cli.SetupLogger(a.cfg.LogLevel, a.cfg.LogFormat, a.logOut)
	}
	return nil
}

// session is an open ledger plus the resources behind it.
type session struct {
	store   *ledger.Store
	backend *backend.BackendResult
	events  *amqp.Client
}

func (s *session) Close() error {
	if s.events != nil {
		_ = s.events.Close()
	}
	return s.backend.Close()
}

// openLedger creates the configured backend and hydrates a store from it.
// When AMQP is configured, connectAttempts bounds the dial; a broker that
// cannot be reached only disables events.
func (a *app) openLedger(ctx context.Context, connectAttempts int) (*session, error) {
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(a.logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", bcfg.Type, err)
	}

	s := &session{backend: res}
	opts := []ledger.Option{ledger.WithLogger(a.logger)}
	if a.cfg.AMQPEnabled() {
		client, err := amqp.Connect(ctx, a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, connectAttempts, a.logger)
		if err != nil {
			a.logger.WarnContext(ctx, "Ledger events disabled, broker unreachable",
				log.FieldOperation, log.OpStartup,
				log.FieldError, err)
		} else {
			s.events = client
			opts = append(opts, ledger.WithNotifier(client))
		}
	}

	s.store = ledger.Open(ctx, res.Adapter, opts...)
	return s, nil
}
