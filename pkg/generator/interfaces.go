package generator

import (
	"context"

	"google.golang.org/genai"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
)

// ImageGenerator はアプリケーション層が利用する統合窓口です。
type ImageGenerator interface {
	// GeneratePhotoshoot はモデル画像と商品画像を合成した撮影画像を生成します。
	GeneratePhotoshoot(ctx context.Context, req domain.PhotoshootRequest) (*domain.ImageResponse, error)
	// GenerateLogo は固定プロンプトでアプリのロゴを生成します。
	GenerateLogo(ctx context.Context) (*domain.ImageResponse, error)
}

// ModelsClient はリモート生成サービスへの狭いインターフェースです。
// *genai.Models がそのまま満たします。
type ModelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// ImageNormalizer は2枚の画像を並行して正規化し、両方そろってから返します。
type ImageNormalizer interface {
	NormalizePair(ctx context.Context, model, product domain.ImageSource) (domain.EncodedImagePart, domain.EncodedImagePart, error)
}
