package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/interview-coach/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve interview sessions over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := mustLoad()
	defer logger.Sync()

	addr := config.Server.Addr
	if flag := flagString(cmd, "addr"); flag != "" {
		addr = flag
	}

	svc, journal, err := buildService(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the interview service", zap.Error(err))
	}
	if journal != nil {
		defer journal.Close()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewRouter(svc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", addr), zap.String("storage", config.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down", zap.Int("sessions", svc.Live()))
		logger.Debug("live sessions", zap.Strings("ids", svc.Sessions()))
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}
