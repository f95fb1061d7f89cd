package normalizer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"sync/atomic"
	"testing"
)

// --- Mocks ---

type mockFetcher struct {
	fetchFunc func(ctx context.Context, rawURL string) (*Fetched, error)
	calls     atomic.Int32
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (*Fetched, error) {
	m.calls.Add(1)
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, rawURL)
	}
	return nil, nil
}

// mockHTTPClient は httpkit.ClientInterface を実装します。
// Do と IsSafeURL 以外は使わないので空実装です。
type mockHTTPClient struct {
	doFunc     func(req *http.Request) (*http.Response, error)
	isSafeFunc func(urlStr string) (bool, error)
	doCalls    atomic.Int32
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.doCalls.Add(1)
	return m.doFunc(req)
}

func (m *mockHTTPClient) IsSafeURL(urlStr string) (bool, error) {
	if m.isSafeFunc != nil {
		return m.isSafeFunc(urlStr)
	}
	return true, nil
}

func (m *mockHTTPClient) DoRequest(req *http.Request) ([]byte, error) { return nil, nil }

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	return nil, nil
}

func (m *mockHTTPClient) FetchAndDecodeJSON(ctx context.Context, url string, v any) error {
	return nil
}

func (m *mockHTTPClient) PostJSONAndFetchBytes(ctx context.Context, url string, data any) ([]byte, error) {
	return nil, nil
}

func (m *mockHTTPClient) PostRawBodyAndFetchBytes(ctx context.Context, url string, body []byte, contentType string) ([]byte, error) {
	return nil, nil
}

func (m *mockHTTPClient) IsSecureServiceURL(serviceURL string) bool { return true }

// testImage は指定形式でエンコードした小さな画像を返すヘルパーです。
func testImage(t *testing.T, format string, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, c)
		}
	}
	buf := new(bytes.Buffer)
	var err error
	switch format {
	case "png":
		err = png.Encode(buf, img)
	case "jpeg":
		err = jpeg.Encode(buf, img, nil)
	default:
		t.Fatalf("unsupported format: %s", format)
	}
	if err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}
