package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/gemini-photoshoot-kit/internal/config"
	"github.com/shouni/gemini-photoshoot-kit/internal/server"
	"github.com/shouni/gemini-photoshoot-kit/pkg/generator"
	"github.com/shouni/gemini-photoshoot-kit/pkg/normalizer"
	"github.com/shouni/gemini-photoshoot-kit/pkg/studio"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "photoshoot-server:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env は任意
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(os.Stdout, cfg.AppEnv, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 生成サービスのクライアント
	models, err := generator.NewGenAIModels(ctx, cfg.APIKey, &http.Client{Timeout: cfg.GenerationTimeout})
	if err != nil {
		return err
	}

	// 画像の正規化（リモート画像の取得を含む）
	httpClient := httpkit.New(cfg.FetchTimeout, httpkit.WithSkipNetworkValidation(cfg.AllowPrivateFetch))
	fetcher := normalizer.NewHTTPFetcher(
		normalizer.WithClient(httpClient),
		normalizer.WithAllowPrivateNetworks(cfg.AllowPrivateFetch),
		normalizer.WithMaxBytes(cfg.MaxUploadBytes),
	)
	norm, err := normalizer.New(fetcher, logger)
	if err != nil {
		return err
	}

	gen, err := generator.NewGeminiGenerator(models, norm, generator.Config{
		ImageModel: cfg.ImageModel,
		LogoModel:  cfg.LogoModel,
	}, logger)
	if err != nil {
		return err
	}

	store := studio.NewStore(cfg.SessionTTL, nil)
	metrics := server.NewMetrics(store.Len)
	controller, err := studio.NewController(gen,
		studio.WithTimeout(cfg.GenerationTimeout),
		studio.WithObserver(metrics),
		studio.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer controller.Close()

	handlers, err := server.NewHandlers(store, controller, cfg.MaxUploadBytes, logger)
	if err != nil {
		return err
	}
	srv := server.NewHTTPServer(cfg, server.NewRouter(handlers, metrics, logger))

	go store.Run(ctx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("サーバーを起動します", "addr", srv.Addr(), "env", cfg.AppEnv,
			"image_model", cfg.ImageModel, "logo_model", cfg.LogoModel)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("サーバーの停止に失敗しました", "error", err)
	}
	logger.Info("サーバーを停止しました")
	return nil
}
