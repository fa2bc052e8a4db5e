package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ReputationScanner/internal/app"
	"ReputationScanner/internal/config"
	"ReputationScanner/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the periodic refresh",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to server.addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	addr := serveAddr
	if addr == "" {
		addr = application.Config().Get().Server.Addr
	}
	srv := server.New(application, addr, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		if err := application.Scheduler().Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return application.Scheduler().Stop(stopCtx)
	})

	g.Go(func() error {
		reloadOnHangup(gctx, application)
		return nil
	})

	err = g.Wait()
	application.Logger().Info("shutdown complete")
	return err
}

// reloadOnHangup re-reads configuration on SIGHUP. Classifier settings apply to
// the next job; engines and storage keep their startup configuration.
func reloadOnHangup(ctx context.Context, application *app.Application) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	watchReload(ctx, application, hup)
}

func watchReload(ctx context.Context, application *app.Application, signals <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-signals:
			cfg := config.Load()
			application.Config().Set(cfg)
			application.Logger().Info("configuration reloaded", "classifier", cfg.Classifier.Backend)
		}
	}
}
