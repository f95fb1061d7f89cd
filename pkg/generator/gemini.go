package generator

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
	"github.com/shouni/gemini-photoshoot-kit/pkg/prompt"
)

// GeminiGenerator は撮影画像生成(GeneratePhotoshoot)とロゴ生成(GenerateLogo)の
// 両方を担当する統合ジェネレーターです。呼び出し間で状態は持ちません。
type GeminiGenerator struct {
	models     ModelsClient
	normalizer ImageNormalizer
	cfg        Config
	logger     *slog.Logger
}

var _ ImageGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator は GeminiGenerator を初期化します。
func NewGeminiGenerator(models ModelsClient, normalizer ImageNormalizer, cfg Config, logger *slog.Logger) (*GeminiGenerator, error) {
	if models == nil {
		return nil, fmt.Errorf("models (ModelsClient) is required")
	}
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer (ImageNormalizer) is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GeminiGenerator{
		models:     models,
		normalizer: normalizer,
		cfg:        cfg.withDefaults(),
		logger:     logger,
	}, nil
}

// GeneratePhotoshoot は2枚の画像と指示文から撮影画像を1枚生成します。
// 入力不足は通信前に domain.ErrMissingInput を返し、それ以外の失敗は
// *domain.GenerationFailedError に包んで返します。
func (g *GeminiGenerator) GeneratePhotoshoot(ctx context.Context, req domain.PhotoshootRequest) (*domain.ImageResponse, error) {
	if req.ModelImage.IsZero() || req.ProductImage.IsZero() {
		return nil, domain.ErrMissingInput
	}

	resp, err := g.generatePhotoshoot(ctx, req)
	if err != nil {
		g.logger.ErrorContext(ctx, "撮影画像の生成に失敗しました",
			"model", g.cfg.ImageModel, "kind", domain.KindOf(err), "error", err)
		return nil, domain.WrapGenerationFailure(domain.OperationPhotoshoot, err)
	}
	return resp, nil
}

func (g *GeminiGenerator) generatePhotoshoot(ctx context.Context, req domain.PhotoshootRequest) (*domain.ImageResponse, error) {
	style := req.Style
	if style.Preset == "" {
		style.Preset = domain.DefaultStylePreset
	}
	if style.AspectRatio == "" {
		style.AspectRatio = domain.DefaultAspectRatio
	}

	// 1. 画像の正規化（2枚並行、両方の完了を待つ）
	modelPart, productPart, err := g.normalizer.NormalizePair(ctx, req.ModelImage, req.ProductImage)
	if err != nil {
		return nil, err
	}

	// 2. 指示文の組み立て
	genReq := domain.GenerationRequest{
		Model:       modelPart,
		Product:     productPart,
		Instruction: prompt.Compose(style, req.Prompt),
		AspectRatio: style.AspectRatio,
	}
	contents, err := buildContents(genReq)
	if err != nil {
		return nil, err
	}

	// 3. 生成リクエスト（画像とテキストの両方を要求）
	g.logger.InfoContext(ctx, "Geminiに撮影画像の生成をリクエストします",
		"model", g.cfg.ImageModel, "style", style.Preset, "aspect_ratio", style.AspectRatio,
		"model_mime", modelPart.MIMEType, "product_mime", productPart.MIMEType)

	resp, err := g.models.GenerateContent(ctx, g.cfg.ImageModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{modalityImage, modalityText},
		ImageConfig:        &genai.ImageConfig{AspectRatio: string(genReq.AspectRatio)},
	})
	if err != nil {
		return nil, err
	}

	// 4-5. レスポンスの解析
	out, err := parseContentResponse(resp)
	if err != nil {
		return nil, err
	}
	g.logger.InfoContext(ctx, "撮影画像を受信しました", "mime_type", out.MimeType, "bytes", len(out.Data))
	return out, nil
}

// GenerateLogo は固定プロンプトで正方形のPNGロゴを1枚生成します。
func (g *GeminiGenerator) GenerateLogo(ctx context.Context) (*domain.ImageResponse, error) {
	g.logger.InfoContext(ctx, "ロゴ生成をリクエストします", "model", g.cfg.LogoModel)

	resp, err := g.models.GenerateImages(ctx, g.cfg.LogoModel, prompt.LogoPrompt, &genai.GenerateImagesConfig{
		NumberOfImages: logoImageCount,
		OutputMIMEType: LogoMIMEType,
		AspectRatio:    LogoAspectRatio,
	})
	if err == nil {
		var out *domain.ImageResponse
		if out, err = parseImagesResponse(resp); err == nil {
			return out, nil
		}
	}

	g.logger.ErrorContext(ctx, "ロゴの生成に失敗しました",
		"model", g.cfg.LogoModel, "kind", domain.KindOf(err), "error", err)
	return nil, domain.WrapGenerationFailure(domain.OperationLogo, err)
}
