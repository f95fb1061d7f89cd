package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// ErrMissingAPIKey は認証情報が渡されなかったことを示します。
var ErrMissingAPIKey = errors.New("API key is required")

// NewGenAIModels は Gemini API バックエンドの genai クライアントを作り、
// その Models を ModelsClient として返します。
// 認証情報は環境変数からではなく引数で受け取ります。
func NewGenAIModels(ctx context.Context, apiKey string, httpClient *http.Client) (ModelsClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client.Models, nil
}
