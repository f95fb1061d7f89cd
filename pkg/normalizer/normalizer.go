// Package normalizer は ImageSource（アップロード画像またはURL）を
// 送信用の EncodedImagePart に変換します。
package normalizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
	"github.com/shouni/gemini-photoshoot-kit/pkg/imgutil"
)

var (
	// ErrMissingMediaType はアップロード画像にメディアタイプが無いことを示します。
	ErrMissingMediaType = errors.New("image source has no media type")
	// ErrEmptyImage は画像のバイト列が空であることを示します。
	ErrEmptyImage = errors.New("image source is empty")
	// ErrNotAnImage は取得したデータが画像ではないことを示します。
	ErrNotAnImage = errors.New("fetched content is not an image")
)

// Normalizer は ImageSource を EncodedImagePart に変換します。
type Normalizer struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// New は Normalizer を初期化します。logger が nil の場合は slog.Default() を使います。
func New(fetcher Fetcher, logger *slog.Logger) (*Normalizer, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{fetcher: fetcher, logger: logger}, nil
}

// Normalize は1枚の画像を正規化します。
// LocalBinary は宣言されたメディアタイプをそのまま引き継ぎ、
// RemoteReference はネットワークから取得してレスポンスのメディアタイプを使います。
func (n *Normalizer) Normalize(ctx context.Context, src domain.ImageSource) (domain.EncodedImagePart, error) {
	switch src.Kind() {
	case domain.SourceLocal:
		local, _ := src.Local()
		return n.normalizeLocal(local)
	case domain.SourceRemote:
		remote, _ := src.Remote()
		return n.normalizeRemote(ctx, remote)
	case domain.SourceNone:
		return domain.EncodedImagePart{}, domain.ErrMissingInput
	default:
		return domain.EncodedImagePart{}, fmt.Errorf("unsupported image source kind: %v", src.Kind())
	}
}

// NormalizePair はモデル画像と商品画像を並行して正規化し、両方の完了を待ちます。
// どちらかが失敗した場合は最初のエラーを返します。
func (n *Normalizer) NormalizePair(ctx context.Context, model, product domain.ImageSource) (domain.EncodedImagePart, domain.EncodedImagePart, error) {
	var modelPart, productPart domain.EncodedImagePart

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := n.Normalize(gctx, model)
		if err != nil {
			return fmt.Errorf("model image: %w", err)
		}
		modelPart = p
		return nil
	})
	g.Go(func() error {
		p, err := n.Normalize(gctx, product)
		if err != nil {
			return fmt.Errorf("product image: %w", err)
		}
		productPart = p
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.EncodedImagePart{}, domain.EncodedImagePart{}, err
	}
	return modelPart, productPart, nil
}

func (n *Normalizer) normalizeLocal(local domain.LocalBinary) (domain.EncodedImagePart, error) {
	if local.MIMEType == "" {
		return domain.EncodedImagePart{}, ErrMissingMediaType
	}
	if len(local.Data) == 0 {
		return domain.EncodedImagePart{}, ErrEmptyImage
	}
	return domain.NewEncodedImagePart(local.MIMEType, local.Data), nil
}

func (n *Normalizer) normalizeRemote(ctx context.Context, remote domain.RemoteReference) (domain.EncodedImagePart, error) {
	fetched, err := n.fetcher.Fetch(ctx, remote.URL)
	if err != nil {
		n.logger.WarnContext(ctx, "参照画像の取得に失敗しました", "url", remote.URL, "error", err)
		return domain.EncodedImagePart{}, err
	}
	if len(fetched.Data) == 0 {
		return domain.EncodedImagePart{}, fmt.Errorf("%s: %w", remote.URL, ErrEmptyImage)
	}

	// ヘッダが無い、または汎用的な値の場合だけ中身から推定する
	mimeType := imgutil.NormalizeMIMEType(fetched.ContentType)
	if !imgutil.IsImageMIMEType(mimeType) {
		detected := imgutil.DetectMIMEType(fetched.Data)
		if !imgutil.IsImageMIMEType(detected) {
			return domain.EncodedImagePart{}, fmt.Errorf("%s (%s): %w", remote.URL, mimeType, ErrNotAnImage)
		}
		mimeType = detected
	}

	n.logger.DebugContext(ctx, "参照画像を取得しました", "url", remote.URL, "mime_type", mimeType, "bytes", len(fetched.Data))
	return domain.NewEncodedImagePart(mimeType, fetched.Data), nil
}
