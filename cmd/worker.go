package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background workers",
	Long:  "Run the payment poller, refund driver, and handler notifier until interrupted.",
	Run:   runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(_ *cobra.Command, _ []string) {
	_, paymentService, events, cleanup := mustCreatePaymentService()
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The topic is load-bearing: without the broker the workers would claim
	// requests they can never finish.
	if err := events.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("Failed to start event publisher")
	}
	defer func() {
		if err := events.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close event publisher")
		}
	}()

	logrus.Info("Starting workers")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return paymentService.RunPollPaymentsLoop(gctx) })
	g.Go(func() error { return paymentService.RunRefundLoop(gctx) })
	g.Go(func() error { return paymentService.RunNotificationLoop(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).Error("Workers stopped")
		return
	}

	logrus.Info("Workers stopped")
}
