package normalizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
)

const (
	DefaultFetchTimeout  = 30 * time.Second
	DefaultMaxFetchBytes = 20 << 20
)

var (
	// errTooLarge は取得した画像がサイズ上限を超えたことを示します。
	errTooLarge = errors.New("image exceeds size limit")
	// errUnsafeURL は SSRF 対策の事前検証で拒否されたことを示します。
	errUnsafeURL = errors.New("制限されたネットワークへのアクセスを検知")
)

// Fetched はリモート画像の取得結果です。
type Fetched struct {
	Data        []byte
	ContentType string
}

// Fetcher はURLから画像を取得するためのインターフェースです。
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Fetched, error)
}

// HTTPFetcher は httpkit.Client を使った Fetcher の実装です。
// 既定のクライアントは接続時にも宛先IPを検証するため、
// リダイレクト先や DNS Rebinding による内部ネットワークへの到達も防ぎます。
type HTTPFetcher struct {
	client       httpkit.ClientInterface
	allowPrivate bool
	maxBytes     int64
}

type fetcherConfig struct {
	client       httpkit.ClientInterface
	timeout      time.Duration
	allowPrivate bool
	maxBytes     int64
}

// FetcherOption は HTTPFetcher の設定を変更します。
type FetcherOption func(*fetcherConfig)

// WithClient は利用する httpkit.ClientInterface を差し替えます。
// 指定した場合、タイムアウトとネットワーク検証の設定はクライアント側に委ねられます。
func WithClient(c httpkit.ClientInterface) FetcherOption {
	return func(cfg *fetcherConfig) {
		if c != nil {
			cfg.client = c
		}
	}
}

// WithTimeout は1回の取得にかける最大時間を設定します。
func WithTimeout(d time.Duration) FetcherOption {
	return func(cfg *fetcherConfig) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// WithAllowPrivateNetworks はプライベートIPやループバックへの取得を許可します。
// ローカル開発とテスト用です。
func WithAllowPrivateNetworks(allow bool) FetcherOption {
	return func(cfg *fetcherConfig) { cfg.allowPrivate = allow }
}

// WithMaxBytes は取得する画像の最大サイズを設定します。
func WithMaxBytes(n int64) FetcherOption {
	return func(cfg *fetcherConfig) {
		if n > 0 {
			cfg.maxBytes = n
		}
	}
}

// NewHTTPFetcher は HTTPFetcher を初期化します。
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	cfg := fetcherConfig{
		timeout:  DefaultFetchTimeout,
		maxBytes: DefaultMaxFetchBytes,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := cfg.client
	if client == nil {
		client = httpkit.New(cfg.timeout, httpkit.WithSkipNetworkValidation(cfg.allowPrivate))
	}

	return &HTTPFetcher{
		client:       client,
		allowPrivate: cfg.allowPrivate,
		maxBytes:     cfg.maxBytes,
	}
}

// Fetch は画像を1回だけ取得します。成功以外のステータスは *domain.SourceFetchError になります。
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Fetched, error) {
	if err := f.checkURL(rawURL); err != nil {
		return nil, &domain.SourceFetchError{URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &domain.SourceFetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "image/*")
	req.Header.Set("User-Agent", httpkit.UserAgent)

	// Do はリトライしない
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.SourceFetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, httpkit.MaxBodyDisplaySize))
		return nil, &domain.SourceFetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &domain.SourceFetchError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, &domain.SourceFetchError{URL: rawURL, Err: errTooLarge}
	}

	return &Fetched{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

// checkURL は送信前の検証です。接続時の検証は httpkit のクライアントが行います。
func (f *HTTPFetcher) checkURL(rawURL string) error {
	if _, err := parseFetchURL(rawURL); err != nil {
		return err
	}
	if f.allowPrivate {
		return nil
	}
	safe, err := f.client.IsSafeURL(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", errUnsafeURL, err)
	}
	if !safe {
		return errUnsafeURL
	}
	return nil
}

// parseFetchURL は絶対URLかつ http/https であることを確認します。
func parseFetchURL(rawURL string) (*url.URL, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return nil, fmt.Errorf("URLパース失敗: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("不許可スキーム: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("ホストがありません: %s", rawURL)
	}
	return parsedURL, nil
}
