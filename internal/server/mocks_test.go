package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
	"github.com/shouni/gemini-photoshoot-kit/pkg/studio"
)

// --- Mocks ---

type mockGenerator struct {
	mu             sync.Mutex
	lastRequest    domain.PhotoshootRequest
	photoshootCnt  int
	photoshootFunc func(ctx context.Context, req domain.PhotoshootRequest) (*domain.ImageResponse, error)
	logoFunc       func(ctx context.Context) (*domain.ImageResponse, error)
}

func (m *mockGenerator) GeneratePhotoshoot(ctx context.Context, req domain.PhotoshootRequest) (*domain.ImageResponse, error) {
	m.mu.Lock()
	m.lastRequest = req
	m.photoshootCnt++
	m.mu.Unlock()
	if m.photoshootFunc != nil {
		return m.photoshootFunc(ctx, req)
	}
	return &domain.ImageResponse{Data: pngBytes(nil), MimeType: "image/png"}, nil
}

func (m *mockGenerator) GenerateLogo(ctx context.Context) (*domain.ImageResponse, error) {
	if m.logoFunc != nil {
		return m.logoFunc(ctx)
	}
	return &domain.ImageResponse{Data: pngBytes(nil), MimeType: "image/png"}, nil
}

func (m *mockGenerator) calls() (int, domain.PhotoshootRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.photoshootCnt, m.lastRequest
}

// --- Helpers ---

type testServer struct {
	handler    http.Handler
	controller *studio.Controller
	store      *studio.Store
	gen        *mockGenerator
}

func newTestServer(t *testing.T, gen *mockGenerator, timeout time.Duration) *testServer {
	t.Helper()
	store := studio.NewStore(time.Hour, nil)
	metrics := NewMetrics(store.Len)
	controller, err := studio.NewController(gen, studio.WithObserver(metrics), studio.WithTimeout(timeout))
	require.NoError(t, err)
	t.Cleanup(controller.Close)

	h, err := NewHandlers(store, controller, 1<<20, nil)
	require.NoError(t, err)
	return &testServer{handler: NewRouter(h, metrics, nil), controller: controller, store: store, gen: gen}
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) createSession(t *testing.T) string {
	t.Helper()
	rec := ts.do(t, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	var v sessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v.ID
}

func (ts *testServer) upload(t *testing.T, path, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, contentType, data)
	req := httptest.NewRequest(http.MethodPut, path, body)
	req.Header.Set("Content-Type", ct)
	return ts.do(t, req)
}

func multipartBody(t *testing.T, contentType string, data []byte) (io.Reader, string) {
	t.Helper()
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="upload"`)
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// pngBytes は小さなPNG画像を返します。
func pngBytes(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 10, G: 200, B: 30, A: 128})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil && t != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}
