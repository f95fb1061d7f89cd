package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrMissingInput はモデル画像または商品画像が未選択のときに返します。通信前に検出されます。
	ErrMissingInput = errors.New("please upload both a model and a product image")

	// ErrInvalidResponseShape はレスポンスに期待したパーツが含まれていないことを示します。
	ErrInvalidResponseShape = errors.New("the AI returned an invalid response")

	// ErrNoImageProduced はレスポンスは正常でも画像データが無かったことを示します。
	ErrNoImageProduced = errors.New("no image was generated by the AI, though a response was received")
)

// SourceFetchError はリモート画像の取得失敗です。生成処理全体を中断させます。
type SourceFetchError struct {
	URL        string
	StatusCode int // 通信自体が失敗した場合は 0
	Err        error
}

func (e *SourceFetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("failed to fetch image from URL: %s (status %d)", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("failed to fetch image from URL: %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("failed to fetch image from URL: %s", e.URL)
	}
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// ContentBlockedError は安全性ポリシーによりサービスが生成を拒否したことを示します。
// Reason はそのままユーザーに表示します。
type ContentBlockedError struct {
	Reason  string
	Message string
}

func (e *ContentBlockedError) Error() string {
	msg := fmt.Sprintf("request was blocked due to safety settings. Reason: %s.", e.Reason)
	if e.Message != "" {
		msg += " " + e.Message
	}
	return msg
}

// Operation は生成操作の種類です。
type Operation string

const (
	OperationPhotoshoot Operation = "image"
	OperationLogo       Operation = "logo"
)

// GenerationFailedError は操作境界で全ての失敗を包むエラーです。
// 元のメッセージを保持し、Unwrap で具体的な原因を辿れます。
type GenerationFailedError struct {
	Operation Operation
	Err       error
}

func (e *GenerationFailedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Failed to generate %s: an unexpected error occurred", e.Operation)
	}
	return fmt.Sprintf("Failed to generate %s: %s", e.Operation, e.Err.Error())
}

func (e *GenerationFailedError) Unwrap() error { return e.Err }

// ErrorKind はエラー分類です。表示状態、HTTPステータス、メトリクスのラベルに使います。
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindMissingInput     ErrorKind = "missing_input"
	KindSourceFetch      ErrorKind = "source_fetch"
	KindContentBlocked   ErrorKind = "content_blocked"
	KindInvalidResponse  ErrorKind = "invalid_response"
	KindNoImageProduced  ErrorKind = "no_image"
	KindGenerationFailed ErrorKind = "generation_failed"
)

// KindOf はエラーを最も具体的な分類に振り分けます。nil は KindNone です。
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var blocked *ContentBlockedError
	var fetchErr *SourceFetchError

	switch {
	case errors.Is(err, ErrMissingInput):
		return KindMissingInput
	case errors.As(err, &blocked):
		return KindContentBlocked
	case errors.As(err, &fetchErr):
		return KindSourceFetch
	case errors.Is(err, ErrNoImageProduced):
		return KindNoImageProduced
	case errors.Is(err, ErrInvalidResponseShape):
		return KindInvalidResponse
	default:
		return KindGenerationFailed
	}
}

// WrapGenerationFailure は操作境界でエラーを GenerationFailedError に包みます。
// ErrMissingInput は通信前の入力エラーなのでそのまま返します。
func WrapGenerationFailure(op Operation, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrMissingInput) {
		return err
	}
	var already *GenerationFailedError
	if errors.As(err, &already) {
		return err
	}
	return &GenerationFailedError{Operation: op, Err: err}
}

// IsTimeout はエラーがタイムアウト由来かどうかを返します。
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
