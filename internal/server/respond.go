package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
	"github.com/shouni/gemini-photoshoot-kit/pkg/studio"
)

// HTTP 層だけで使うエラー分類
const (
	kindBadRequest       domain.ErrorKind = "bad_request"
	kindNotFound         domain.ErrorKind = "not_found"
	kindNotReady         domain.ErrorKind = "not_ready"
	kindTooLarge         domain.ErrorKind = "too_large"
	kindUnsupportedMedia domain.ErrorKind = "unsupported_media_type"
	kindInternal         domain.ErrorKind = "internal"
)

type errorBody struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, kind domain.ErrorKind, message string) {
	writeJSON(w, code, errorResponse{Error: errorBody{Kind: kind, Message: message}})
}

// statusForSnapshot はスロットの状態からレスポンスのステータスを決めます。
func statusForSnapshot(snap studio.Snapshot) int {
	switch snap.Phase {
	case studio.PhaseInProgress:
		return http.StatusAccepted
	case studio.PhaseFailed:
		return statusForError(snap.Err)
	default:
		return http.StatusOK
	}
}

func statusForError(err error) int {
	if domain.IsTimeout(err) {
		return http.StatusGatewayTimeout
	}
	switch domain.KindOf(err) {
	case domain.KindMissingInput:
		return http.StatusBadRequest
	case domain.KindContentBlocked:
		return http.StatusUnprocessableEntity
	case domain.KindSourceFetch, domain.KindInvalidResponse, domain.KindNoImageProduced:
		return http.StatusBadGateway
	}
	if errors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}
