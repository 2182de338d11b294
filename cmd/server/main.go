package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/config"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/temporal"
)

const shutdownTimeout = 10 * time.Second

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "payment-workflow",
		Short:         "Credit card payment orchestration on Temporal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "optional config file (yaml, json or env)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(workerCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config and storage for a subcommand.
func bootstrap() (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewZap(cfg.AppEnv)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	return newApp(cfg, logger)
}

func serveCmd() *cobra.Command {
	var embedWorker bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the outbox dispatcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.logger.Sync()
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orch, err := a.dialTemporal()
			if err != nil {
				return err
			}
			dispatcher, err := a.dispatcher(ctx)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              a.cfg.HTTPAddr,
				Handler:           newRouter(a, orch),
				ReadHeaderTimeout: 5 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.logger.Info("http server listening", map[string]any{"addr": srv.Addr})
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			g.Go(func() error { return dispatcher.Run(gctx) })
			if embedWorker {
				w := temporal.NewWorker(orch.SDK(), a.cfg.TemporalTaskQueue, a.activities())
				g.Go(func() error { return temporal.RunWorker(gctx, w) })
			}

			err = g.Wait()
			a.logger.Info("server stopped", nil)
			return err
		},
	}
	cmd.Flags().BoolVar(&embedWorker, "worker", true, "also poll the Temporal task queue in this process")
	return cmd
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the Temporal worker for the payment workflow",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.logger.Sync()
			defer a.close()

			if a.cfg.LedgerDriver == "memory" {
				a.logger.Warn("memory ledger is not shared with the API process", nil)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orch, err := a.dialTemporal()
			if err != nil {
				return err
			}

			a.logger.Info("worker started", map[string]any{"task_queue": a.cfg.TemporalTaskQueue})
			w := temporal.NewWorker(orch.SDK(), a.cfg.TemporalTaskQueue, a.activities())
			return temporal.RunWorker(ctx, w)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the ledger and outbox tables",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.logger.Sync()
			defer a.close()

			a.logger.Info("migrations applied", map[string]any{"driver": a.cfg.LedgerDriver})
			return nil
		},
	}
}
