package normalizer

import (
	"context"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	ctx := context.Background()
	pngData := testImage(t, "png", color.White)

	mux := http.NewServeMux()
	mux.HandleFunc("/ok.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngData)
	})
	mux.HandleFunc("/missing.png", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/big.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(make([]byte, 2048))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fetcher := NewHTTPFetcher(WithAllowPrivateNetworks(true), WithTimeout(5*time.Second))

	t.Run("成功時はボディとContent-Typeを返す", func(t *testing.T) {
		got, err := fetcher.Fetch(ctx, srv.URL+"/ok.png")
		require.NoError(t, err)
		assert.Equal(t, pngData, got.Data)
		assert.Equal(t, "image/png", got.ContentType)
	})

	t.Run("成功以外のステータスは SourceFetchError", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, srv.URL+"/missing.png")
		var fetchErr *domain.SourceFetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	})

	t.Run("サイズ上限を超えるとエラー", func(t *testing.T) {
		small := NewHTTPFetcher(WithAllowPrivateNetworks(true), WithMaxBytes(1024))
		_, err := small.Fetch(ctx, srv.URL+"/big.png")
		var fetchErr *domain.SourceFetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.ErrorIs(t, err, errTooLarge)
	})

	t.Run("相対URLは拒否する", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, "/ok.png")
		assert.Equal(t, domain.KindSourceFetch, domain.KindOf(err))
	})

	t.Run("http/https 以外のスキームは拒否する", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, "gs://bucket/a.png")
		assert.Equal(t, domain.KindSourceFetch, domain.KindOf(err))
	})
}

func TestHTTPFetcher_BlocksPrivateNetworks(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher()
	_, err := fetcher.Fetch(context.Background(), srv.URL+"/evil.png")

	var fetchErr *domain.SourceFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, hits.Load(), "blocked URLs must not be requested")
}

func TestHTTPFetcher_BlocksRedirectToLoopback(t *testing.T) {
	ctx := context.Background()

	var internalHits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalHits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG\r\n\x1a\nINTERNAL-SECRET"))
	}))
	defer internal.Close()

	front := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, internal.URL+"/secret.png", http.StatusFound)
	}))
	defer front.Close()

	t.Run("ループバックへのリダイレクトを返すURLでも内部サーバーには到達しない", func(t *testing.T) {
		fetcher := NewHTTPFetcher(WithTimeout(2 * time.Second))

		got, err := fetcher.Fetch(ctx, front.URL+"/public.png")

		var fetchErr *domain.SourceFetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Nil(t, got)
		assert.Zero(t, internalHits.Load())
	})

	t.Run("事前検証を通過しても接続時にループバックを拒否する", func(t *testing.T) {
		// 名前解決の結果が検証後に内部アドレスへ変わった状況と同じになる
		secure := httpkit.New(2 * time.Second)
		client := &mockHTTPClient{
			isSafeFunc: func(string) (bool, error) { return true, nil },
			doFunc:     secure.Do,
		}
		fetcher := NewHTTPFetcher(WithClient(client))

		got, err := fetcher.Fetch(ctx, front.URL+"/public.png")

		var fetchErr *domain.SourceFetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Nil(t, got)
		assert.Equal(t, int32(1), client.doCalls.Load(), "事前検証は通過している")
		assert.Zero(t, internalHits.Load())
	})

	t.Run("許可設定なら同じリダイレクトに追従する", func(t *testing.T) {
		fetcher := NewHTTPFetcher(WithAllowPrivateNetworks(true), WithTimeout(2*time.Second))

		got, err := fetcher.Fetch(ctx, front.URL+"/public.png")

		require.NoError(t, err)
		assert.Contains(t, string(got.Data), "INTERNAL-SECRET")
	})
}

func TestHTTPFetcher_PreflightCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("事前検証で拒否されたURLには送信しない", func(t *testing.T) {
		client := &mockHTTPClient{
			isSafeFunc: func(string) (bool, error) {
				return false, errors.New("制限されたネットワークです")
			},
			doFunc: func(*http.Request) (*http.Response, error) {
				t.Fatal("Do must not be called")
				return nil, nil
			},
		}
		fetcher := NewHTTPFetcher(WithClient(client))

		_, err := fetcher.Fetch(ctx, "http://169.254.169.254/latest/meta-data")

		assert.ErrorIs(t, err, errUnsafeURL)
		assert.Equal(t, domain.KindSourceFetch, domain.KindOf(err))
		assert.Zero(t, client.doCalls.Load())
	})

	t.Run("安全でないと判定されただけでも拒否する", func(t *testing.T) {
		client := &mockHTTPClient{
			isSafeFunc: func(string) (bool, error) { return false, nil },
		}
		fetcher := NewHTTPFetcher(WithClient(client))

		_, err := fetcher.Fetch(ctx, "http://10.0.0.1/a.png")

		assert.ErrorIs(t, err, errUnsafeURL)
		assert.Zero(t, client.doCalls.Load())
	})

	t.Run("許可設定では事前検証を行わない", func(t *testing.T) {
		pngData := testImage(t, "png", color.Black)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "image/*", r.Header.Get("Accept"))
			_, _ = w.Write(pngData)
		}))
		defer srv.Close()

		client := &mockHTTPClient{
			isSafeFunc: func(string) (bool, error) {
				t.Fatal("IsSafeURL must not be called")
				return false, nil
			},
			doFunc: srv.Client().Do,
		}
		fetcher := NewHTTPFetcher(WithClient(client), WithAllowPrivateNetworks(true))

		got, err := fetcher.Fetch(ctx, srv.URL+"/a.png")

		require.NoError(t, err)
		assert.Equal(t, pngData, got.Data)
		assert.Equal(t, int32(1), client.doCalls.Load())
	})
}
