package generator

import (
	"context"
	"sync"

	"google.golang.org/genai"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
)

// --- Mocks ---

// callRecorder は複数のモックをまたいだ呼び出し順を記録します。
type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) record(name string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *callRecorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type mockModels struct {
	rec                 *callRecorder
	generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	generateImagesFunc  func(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)

	contentCalls int
	imagesCalls  int
}

func (m *mockModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.contentCalls++
	m.rec.record("generate")
	if m.generateContentFunc != nil {
		return m.generateContentFunc(ctx, model, contents, config)
	}
	return imageContentResponse("image/png", []byte("fake-png")), nil
}

func (m *mockModels) GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	m.imagesCalls++
	m.rec.record("generate_images")
	if m.generateImagesFunc != nil {
		return m.generateImagesFunc(ctx, model, prompt, config)
	}
	return &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: []byte("fake-logo")}}},
	}, nil
}

type mockNormalizer struct {
	rec               *callRecorder
	normalizePairFunc func(ctx context.Context, model, product domain.ImageSource) (domain.EncodedImagePart, domain.EncodedImagePart, error)
}

func (m *mockNormalizer) NormalizePair(ctx context.Context, model, product domain.ImageSource) (domain.EncodedImagePart, domain.EncodedImagePart, error) {
	m.rec.record("normalize")
	if m.normalizePairFunc != nil {
		return m.normalizePairFunc(ctx, model, product)
	}
	return domain.NewEncodedImagePart("image/jpeg", []byte("model-bytes")),
		domain.NewEncodedImagePart("image/png", []byte("product-bytes")), nil
}

// imageContentResponse はインライン画像を1つだけ含むレスポンスを作るヘルパーです。
func imageContentResponse(mimeType string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
			},
		}},
	}
}
