package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shouni/gemini-photoshoot-kit/internal/config"
)

// HTTPServer は http.Server を包み、起動と終了の手順をまとめます。
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer は設定に従って HTTPServer を作ります。
func NewHTTPServer(cfg *config.Config, handler http.Handler) *HTTPServer {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}
	return &HTTPServer{server: srv}
}

// Addr は待ち受けアドレスです。
func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

// Start は現在のゴルーチンでサーバーを動かします。Shutdown による停止では nil を返します。
func (s *HTTPServer) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown は処理中のリクエストを待ってからサーバーを止めます。
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
