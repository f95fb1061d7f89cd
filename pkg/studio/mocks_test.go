package studio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
)

// --- Mocks ---

type mockGenerator struct {
	photoshootFunc func(ctx context.Context, req domain.PhotoshootRequest) (*domain.ImageResponse, error)
	logoFunc       func(ctx context.Context) (*domain.ImageResponse, error)

	photoshootCalls atomic.Int32
	logoCalls       atomic.Int32
}

func (m *mockGenerator) GeneratePhotoshoot(ctx context.Context, req domain.PhotoshootRequest) (*domain.ImageResponse, error) {
	m.photoshootCalls.Add(1)
	if m.photoshootFunc != nil {
		return m.photoshootFunc(ctx, req)
	}
	return &domain.ImageResponse{Data: []byte("photo"), MimeType: "image/png"}, nil
}

func (m *mockGenerator) GenerateLogo(ctx context.Context) (*domain.ImageResponse, error) {
	m.logoCalls.Add(1)
	if m.logoFunc != nil {
		return m.logoFunc(ctx)
	}
	return &domain.ImageResponse{Data: []byte("logo"), MimeType: "image/png"}, nil
}

type observation struct {
	slot Slot
	kind domain.ErrorKind
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (o *recordingObserver) ObserveGeneration(slot Slot, kind domain.ErrorKind, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observation{slot, kind})
}

func (o *recordingObserver) list() []observation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]observation(nil), o.seen...)
}

// fakeClock は手動で進める時計です。
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func readySession() *Session {
	s := NewSession("test-session", nil)
	s.SetProductImage(domain.NewLocalSource([]byte("product"), "image/png"))
	return s
}
