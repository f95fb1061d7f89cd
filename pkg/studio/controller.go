package studio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
	"github.com/shouni/gemini-photoshoot-kit/pkg/generator"
)

// DefaultTimeout は1回の生成操作に与える既定の制限時間です。
const DefaultTimeout = 120 * time.Second

// Observer は生成操作が終わるたびに呼ばれます。kind が空なら成功です。
type Observer interface {
	ObserveGeneration(slot Slot, kind domain.ErrorKind, elapsed time.Duration)
}

// ObserverFunc は関数を Observer として使うためのアダプタです。
type ObserverFunc func(slot Slot, kind domain.ErrorKind, elapsed time.Duration)

func (f ObserverFunc) ObserveGeneration(slot Slot, kind domain.ErrorKind, elapsed time.Duration) {
	f(slot, kind, elapsed)
}

type nopObserver struct{}

func (nopObserver) ObserveGeneration(Slot, domain.ErrorKind, time.Duration) {}

// Option は Controller の設定を変更します。
type Option func(*Controller)

// WithTimeout は生成1回あたりの制限時間を設定します。0以下は無視します。
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithObserver は完了通知の受け取り先を設定します。
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller はユーザー操作を生成処理に渡し、結果をセッションのスロットへ書き戻します。
type Controller struct {
	gen      generator.ImageGenerator
	timeout  time.Duration
	observer Observer
	logger   *slog.Logger

	// バックグラウンド実行の親コンテキスト。Close で打ち切る
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewController は Controller を初期化します。
func NewController(gen generator.ImageGenerator, opts ...Option) (*Controller, error) {
	if gen == nil {
		return nil, fmt.Errorf("gen (ImageGenerator) is required")
	}
	c := &Controller{
		gen:      gen,
		timeout:  DefaultTimeout,
		observer: nopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseCtx, c.cancel = context.WithCancel(context.Background())
	return c, nil
}

// RunPhotoshoot は撮影画像を生成し、完了までブロックします。
func (c *Controller) RunPhotoshoot(ctx context.Context, s *Session) Snapshot {
	req, token, ok := c.beginPhotoshoot(s)
	if !ok {
		return s.Snapshot(SlotPhotoshoot)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	c.execute(ctx, s, SlotPhotoshoot, token, func(ctx context.Context) (*domain.ImageResponse, error) {
		return c.gen.GeneratePhotoshoot(ctx, req)
	})
	return s.Snapshot(SlotPhotoshoot)
}

// StartPhotoshoot は撮影画像の生成をバックグラウンドで始め、直後の状態を返します。
func (c *Controller) StartPhotoshoot(s *Session) Snapshot {
	req, token, ok := c.beginPhotoshoot(s)
	if !ok {
		return s.Snapshot(SlotPhotoshoot)
	}
	c.spawn(s, SlotPhotoshoot, token, func(ctx context.Context) (*domain.ImageResponse, error) {
		return c.gen.GeneratePhotoshoot(ctx, req)
	})
	return s.Snapshot(SlotPhotoshoot)
}

// RunLogo はロゴを生成し、完了までブロックします。
func (c *Controller) RunLogo(ctx context.Context, s *Session) Snapshot {
	token := s.Begin(SlotLogo)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	c.execute(ctx, s, SlotLogo, token, c.gen.GenerateLogo)
	return s.Snapshot(SlotLogo)
}

// StartLogo はロゴ生成をバックグラウンドで始めます。
func (c *Controller) StartLogo(s *Session) Snapshot {
	token := s.Begin(SlotLogo)
	c.spawn(s, SlotLogo, token, c.gen.GenerateLogo)
	return s.Snapshot(SlotLogo)
}

// Close は実行中のバックグラウンド生成を打ち切り、終了を待ちます。
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}

// Wait はバックグラウンド生成がすべて終わるまで待ちます。
func (c *Controller) Wait() {
	c.wg.Wait()
}

// beginPhotoshoot は入力不足を通信前に検出します。不足していればスロットを失敗にして ok=false を返します。
func (c *Controller) beginPhotoshoot(s *Session) (domain.PhotoshootRequest, uint64, bool) {
	req := s.PhotoshootRequest()
	if req.ModelImage.IsZero() || req.ProductImage.IsZero() {
		s.Fail(SlotPhotoshoot, domain.ErrMissingInput)
		c.observer.ObserveGeneration(SlotPhotoshoot, domain.KindMissingInput, 0)
		return req, 0, false
	}
	return req, s.Begin(SlotPhotoshoot), true
}

func (c *Controller) spawn(s *Session, slot Slot, token uint64, call func(context.Context) (*domain.ImageResponse, error)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.baseCtx, c.timeout)
		defer cancel()
		c.execute(ctx, s, slot, token, call)
	}()
}

func (c *Controller) execute(ctx context.Context, s *Session, slot Slot, token uint64, call func(context.Context) (*domain.ImageResponse, error)) {
	start := time.Now()
	resp, err := safeCall(ctx, slot, call)
	elapsed := time.Since(start)

	kind := domain.KindOf(err)
	c.observer.ObserveGeneration(slot, kind, elapsed)

	if !s.Complete(slot, token, resp, err) {
		c.logger.InfoContext(ctx, "新しい要求に置き換えられたため結果を破棄しました",
			"session", s.ID(), "slot", slot, "token", token)
		return
	}
	if err != nil {
		c.logger.WarnContext(ctx, "生成に失敗しました",
			"session", s.ID(), "slot", slot, "kind", kind, "elapsed", elapsed, "error", err)
		return
	}
	c.logger.InfoContext(ctx, "生成が完了しました",
		"session", s.ID(), "slot", slot, "elapsed", elapsed)
}

// safeCall は panic を GenerationFailed に変換します。
func safeCall(ctx context.Context, slot Slot, call func(context.Context) (*domain.ImageResponse, error)) (resp *domain.ImageResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = domain.WrapGenerationFailure(operationOf(slot), fmt.Errorf("panic: %v", r))
		}
	}()
	resp, err = call(ctx)
	if err != nil {
		err = domain.WrapGenerationFailure(operationOf(slot), err)
	}
	return resp, err
}
