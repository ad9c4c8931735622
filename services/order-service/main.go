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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "order-service"

func main() {
	rootCmd := &cobra.Command{
		Use:          serviceName,
		Short:        "marketplace order lifecycle service",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		serveCommand(),
		migrateCommand(),
		consumePaymentsCommand(),
		syncCatalogCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	var withConsumers bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serve(ctx, withConsumers)
		},
	}
	cmd.Flags().BoolVar(&withConsumers, "with-consumers", false, "also run the payment event consumers")
	return cmd
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create tables and indexes for the configured order store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.migrate(cmd.Context())
		},
	}
}

func consumePaymentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "consume-payments",
		Short: "apply payment service events to orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.consumePayments(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context, withConsumers bool) error {
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if a.cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("order service listening", zap.String("port", a.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if withConsumers {
		g.Go(func() error { return a.consumePayments(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("server shutdown complete")
	return nil
}

// consumePayments runs every configured payment event reader until ctx ends.
func (a *app) consumePayments(ctx context.Context) error {
	if a.paymentQueue == nil && a.paymentConsumer == nil {
		return fmt.Errorf("no payment event source configured: set PAYMENT_EVENTS_QUEUE_URL or PAYMENT_EVENTS_TOPIC")
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.paymentQueue != nil {
		g.Go(func() error { return a.paymentQueue.StartPolling(gctx, a.payments.Handle) })
	}
	if a.paymentConsumer != nil {
		g.Go(func() error { return a.paymentConsumer.Run(gctx, a.payments.Handle) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
