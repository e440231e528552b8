package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thedevkitchen/apigateway/internal/config"
	"github.com/thedevkitchen/apigateway/internal/observability/logger"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			repo, err := openRepository(ctx, cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			cacheClient, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer cacheClient.Close()

			handler, sessions := buildHandler(cfg, repo, cacheClient)

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				logger.L().Info("gateway listening", zap.String("addr", cfg.Server.Addr))
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			g.Go(func() error {
				sessions.RunJanitor(gctx,
					config.Duration(cfg.Session.JanitorEvery),
					config.Duration(cfg.Session.StaleAfter))
				return nil
			})

			g.Go(func() error {
				<-gctx.Done()
				shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				logger.L().Info("shutting down")
				return srv.Shutdown(shutCtx)
			})

			return g.Wait()
		},
	}
}
