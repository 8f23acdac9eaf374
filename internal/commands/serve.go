package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tracker/internal/cli"
	apphttp "tracker/internal/http"
	"tracker/internal/log"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var addr, port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		Long: `Start the web UI on ADDR:PORT.

The page shows the totals, a form to add a transaction and the history
with a delete button per row. Every change is saved before the page
updates.`,
		Example: `  tracker serve
  tracker serve --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Addr = addr
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind host (overrides ADDR)")
	cmd.Flags().StringVarP(&port, "port", "p", "", "Bind port (overrides PORT)")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	ctx, cancel := cli.SignalContext(parent, a.logger)
	defer cancel()

	s, err := a.openLedger(ctx, 5)
	if err != nil {
		return err
	}
	defer s.Close()

	srv := apphttp.NewServer(a.cfg.ListenAddr(), s.store, apphttp.Options{
		CurrencySymbol: a.cfg.CurrencySymbol,
		TrustedProxies: a.cfg.TrustedProxies,
		Logger:         a.logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Starting tracker server",
			log.FieldOperation, log.OpStartup,
			"addr", srv.Addr,
			log.FieldBackend, a.cfg.DataBackend,
			"events", s.events != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve %s: %w", srv.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Server shutdown error", log.FieldOperation, log.OpShutdown, log.FieldError, err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
	return nil
}
