package main

import (
	"context"
	"net"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/comment-widget/internal/platform/config"
	"github.com/example/comment-widget/internal/platform/httpserver"
	"github.com/example/comment-widget/internal/platform/logging"
	"github.com/example/comment-widget/internal/platform/run"
	"github.com/example/comment-widget/services/comments/internal/app"
	"github.com/example/comment-widget/services/comments/internal/grpcapi"
	"github.com/example/comment-widget/services/comments/internal/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Error("init comments", zap.Error(err))
		_ = log.Sync()
		run.Exit(1)
	}
	defer a.Close()

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: a.Ready, Logger: log})
	handlers.New(a.Manager).Register(r)

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, Handler: r, Logger: log})

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.Error("grpc listen", zap.Error(err))
		run.Exit(1)
	}
	health := grpcapi.NewHealth(cfg.ServiceName, a.Ready, log)
	grpcSrv := grpcapi.NewServer(health)

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go health.Run(ctx, 5*time.Second)
		go func() {
			log.Info("grpc server starting", zap.String("addr", cfg.GRPC.Addr))
			if err := grpcSrv.Serve(lis); err != nil {
				log.Error("grpc serve", zap.Error(err))
			}
		}()
		return srv.Start()
	},
		func(ctx context.Context) error {
			stopped := make(chan struct{})
			go func() {
				grpcSrv.GracefulStop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-ctx.Done():
				grpcSrv.Stop()
			}
			return nil
		},
		srv.Shutdown,
	)

	log.Info("exit", zap.Int("code", code))
	a.Close()
	_ = log.Sync()
	run.Exit(code)
}
