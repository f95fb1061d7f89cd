// Package studio はユーザーの選択状態と、生成操作ごとの表示状態を管理します。
package studio

import (
	"sync"
	"time"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
)

// Slot は独立して状態を持つ生成操作の種類です。
type Slot string

const (
	SlotPhotoshoot Slot = "photoshoot"
	SlotLogo       Slot = "logo"
)

// Slots は全スロットを返します。
func Slots() []Slot { return []Slot{SlotPhotoshoot, SlotLogo} }

// Phase はスロットの表示状態です。結果とエラーは同時に存在しません。
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseInProgress Phase = "in_progress"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// Snapshot はあるスロットの状態の写しです。
type Snapshot struct {
	Slot      Slot
	Phase     Phase
	Token     uint64
	Result    *domain.ImageResponse
	Err       error
	ErrorKind domain.ErrorKind
	UpdatedAt time.Time
}

// Selection はユーザーが現在選んでいる入力です。
type Selection struct {
	ModelImage   domain.ImageSource
	ModelStockID string // ストックモデルを選んでいる場合のみ設定
	ProductImage domain.ImageSource
	Prompt       string
	Style        domain.StyleSelection
}

type slotState struct {
	phase     Phase
	token     uint64
	result    *domain.ImageResponse
	err       error
	updatedAt time.Time
}

// Session は1ユーザー分の選択とスロット状態です。全ての操作は並行に呼び出して安全です。
type Session struct {
	id  string
	now func() time.Time

	mu        sync.Mutex
	selection Selection
	slots     map[Slot]*slotState
	lastSeen  time.Time
}

// NewSession は既定の選択（ストックモデル1、既定プロンプト、既定スタイル）で Session を作ります。
func NewSession(id string, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	stock := domain.DefaultStockModel()
	t := now()

	s := &Session{
		id:  id,
		now: now,
		selection: Selection{
			ModelImage:   stock.Source(),
			ModelStockID: stock.ID,
			Prompt:       domain.DefaultPrompt,
			Style:        domain.DefaultStyleSelection(),
		},
		slots:    make(map[Slot]*slotState, 2),
		lastSeen: t,
	}
	for _, slot := range Slots() {
		s.slots[slot] = &slotState{phase: PhaseIdle, updatedAt: t}
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Selection は現在の選択の写しを返します。
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// SetModelImage はアップロードされたモデル画像を選択します。
func (s *Session) SetModelImage(src domain.ImageSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.ModelImage = src
	s.selection.ModelStockID = ""
	s.lastSeen = s.now()
}

// SelectStockModel はストックモデルをモデル画像として選択します。
func (s *Session) SelectStockModel(m domain.StockModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.ModelImage = m.Source()
	s.selection.ModelStockID = m.ID
	s.lastSeen = s.now()
}

// SetProductImage は商品画像を選択します。
func (s *Session) SetProductImage(src domain.ImageSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.ProductImage = src
	s.lastSeen = s.now()
}

// SetDirection はプロンプトとスタイルを更新します。
func (s *Session) SetDirection(prompt string, style domain.StyleSelection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Prompt = prompt
	s.selection.Style = style
	s.lastSeen = s.now()
}

// PhotoshootRequest は現在の選択から生成要求を組み立てます。
func (s *Session) PhotoshootRequest() domain.PhotoshootRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.PhotoshootRequest{
		ModelImage:   s.selection.ModelImage,
		ProductImage: s.selection.ProductImage,
		Prompt:       s.selection.Prompt,
		Style:        s.selection.Style,
	}
}

// Begin は前回の結果とエラーを消して in_progress にし、新しいトークンを返します。
// 以前のトークンによる Complete はこれ以降すべて破棄されます。
func (s *Session) Begin(slot Slot) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.slot(slot)
	st.token++
	st.phase = PhaseInProgress
	st.result = nil
	st.err = nil
	st.updatedAt = s.now()
	s.lastSeen = st.updatedAt
	return st.token
}

// Complete は token がまだ最新であれば結果を反映し、true を返します。
// 後から始まった要求に追い越された結果は捨てて false を返します。
func (s *Session) Complete(slot Slot, token uint64, resp *domain.ImageResponse, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.slot(slot)
	if token != st.token || st.phase != PhaseInProgress {
		return false
	}
	st.updatedAt = s.now()
	if err != nil {
		st.phase, st.result, st.err = PhaseFailed, nil, err
		return true
	}
	if resp == nil {
		st.phase, st.result, st.err = PhaseFailed, nil, domain.WrapGenerationFailure(operationOf(slot), domain.ErrInvalidResponseShape)
		return true
	}
	st.phase, st.result, st.err = PhaseSucceeded, resp, nil
	return true
}

// Fail は通信を伴わずに検出した失敗（入力不足など）を記録します。
// 実行中の要求があれば、その結果は以後破棄されます。
func (s *Session) Fail(slot Slot, err error) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.slot(slot)
	st.token++
	st.phase, st.result, st.err = PhaseFailed, nil, err
	st.updatedAt = s.now()
	s.lastSeen = st.updatedAt
	return s.snapshotLocked(slot)
}

// Reset はスロットを idle に戻します（ロゴダイアログを閉じる操作に相当）。
func (s *Session) Reset(slot Slot) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.slot(slot)
	st.token++
	st.phase, st.result, st.err = PhaseIdle, nil, nil
	st.updatedAt = s.now()
	s.lastSeen = st.updatedAt
	return s.snapshotLocked(slot)
}

// Snapshot はスロットの現在の状態を返します。
func (s *Session) Snapshot(slot Slot) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(slot)
}

func (s *Session) snapshotLocked(slot Slot) Snapshot {
	st := s.slot(slot)
	return Snapshot{
		Slot:      slot,
		Phase:     st.phase,
		Token:     st.token,
		Result:    st.result,
		Err:       st.err,
		ErrorKind: domain.KindOf(st.err),
		UpdatedAt: st.updatedAt,
	}
}

// busy はいずれかのスロットが実行中かどうかを返します。
func (s *Session) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.slots {
		if st.phase == PhaseInProgress {
			return true
		}
	}
	return false
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Session) idleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

func (s *Session) slot(slot Slot) *slotState {
	st, ok := s.slots[slot]
	if !ok {
		// 未知のスロットは呼び出し側のバグ
		panic("studio: unknown slot " + string(slot))
	}
	return st
}

func operationOf(slot Slot) domain.Operation {
	if slot == SlotLogo {
		return domain.OperationLogo
	}
	return domain.OperationPhotoshoot
}
