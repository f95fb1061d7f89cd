package generator

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
	"github.com/shouni/gemini-photoshoot-kit/pkg/imgutil"
)

// buildContents はモデル画像、商品画像、指示文の順でパーツを並べます。
func buildContents(req domain.GenerationRequest) ([]*genai.Content, error) {
	modelData, err := req.Model.Bytes()
	if err != nil {
		return nil, fmt.Errorf("model image: %w", err)
	}
	productData, err := req.Product.Bytes()
	if err != nil {
		return nil, fmt.Errorf("product image: %w", err)
	}

	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: req.Model.MIMEType, Data: modelData}},
		{InlineData: &genai.Blob{MIMEType: req.Product.MIMEType, Data: productData}},
		genai.NewPartFromText(req.Instruction),
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil
}

// parseContentResponse は Gemini のレスポンスから最初のインライン画像を取り出します。
// 候補が無い場合はブロック理由を確認し、あれば ContentBlockedError を返します。
func parseContentResponse(resp *genai.GenerateContentResponse) (*domain.ImageResponse, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", domain.ErrInvalidResponseShape)
	}

	// 現在の仕様では最初の候補 (Candidate) のみを利用する
	var candidate *genai.Candidate
	if len(resp.Candidates) > 0 {
		candidate = resp.Candidates[0]
	}

	if candidate == nil || candidate.Content == nil || candidate.Content.Parts == nil {
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return nil, &domain.ContentBlockedError{
				Reason:  string(fb.BlockReason),
				Message: fb.BlockReasonMessage,
			}
		}
		return nil, fmt.Errorf("%w. This may be due to content filters", domain.ErrInvalidResponseShape)
	}

	for _, part := range candidate.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = imgutil.DetectMIMEType(part.InlineData.Data)
		}
		return &domain.ImageResponse{Data: part.InlineData.Data, MimeType: mimeType}, nil
	}

	// 安全フィルター等による異常終了なら理由を添える
	if candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("%w (finish reason: %s)", domain.ErrNoImageProduced, candidate.FinishReason)
	}
	return nil, domain.ErrNoImageProduced
}

// parseImagesResponse は画像生成APIのレスポンスから1枚目の画像を取り出します。
func parseImagesResponse(resp *genai.GenerateImagesResponse) (*domain.ImageResponse, error) {
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, fmt.Errorf("%w: no generated images", domain.ErrInvalidResponseShape)
	}
	img := resp.GeneratedImages[0]
	if img == nil || img.Image == nil || len(img.Image.ImageBytes) == 0 {
		return nil, fmt.Errorf("%w: no image data", domain.ErrInvalidResponseShape)
	}
	return &domain.ImageResponse{Data: img.Image.ImageBytes, MimeType: LogoMIMEType}, nil
}
