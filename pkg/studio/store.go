package studio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL は操作の無いセッションを保持する既定の時間です。
const DefaultSessionTTL = 60 * time.Minute

// ErrSessionNotFound は存在しない、または期限切れのセッションを指定したことを示します。
var ErrSessionNotFound = errors.New("session not found")

// Store はメモリ上にセッションを保持します。永続化はしません。
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore は Store を作成します。ttl が0以下なら DefaultSessionTTL を使います。
func NewStore(ttl time.Duration, now func() time.Time) *Store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Store{ttl: ttl, now: now, sessions: make(map[string]*Session)}
}

// Create は新しいセッションを登録して返します。
func (st *Store) Create() *Session {
	s := NewSession(uuid.NewString(), st.now)
	st.mu.Lock()
	st.sessions[s.ID()] = s
	st.mu.Unlock()
	return s
}

// Get はセッションを取得し、最終アクセス時刻を更新します。
func (st *Store) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if st.expired(s) {
		st.mu.Lock()
		delete(st.sessions, id)
		st.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// Len は保持しているセッション数を返します。
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep は期限切れのセッションを削除し、削除した数を返します。
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		if st.expired(s) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Run は ctx が終わるまで interval ごとに Sweep を実行します。
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = st.ttl / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}

// 実行中のスロットがあるセッションは期限切れにしない
func (st *Store) expired(s *Session) bool {
	return s.idleFor(st.now()) > st.ttl && !s.busy()
}
