package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
	"github.com/shouni/gemini-photoshoot-kit/pkg/imgutil"
	"github.com/shouni/gemini-photoshoot-kit/pkg/studio"
)

const (
	uploadField = "image"
	// マルチパートの境界やヘッダの分
	multipartOverhead = 1 << 20
)

// Handlers はHTTPリクエストをセッションと Controller の操作に変換します。
type Handlers struct {
	store          *studio.Store
	controller     *studio.Controller
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewHandlers は Handlers を初期化します。
func NewHandlers(store *studio.Store, controller *studio.Controller, maxUploadBytes int64, logger *slog.Logger) (*Handlers, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if controller == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 << 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{store: store, controller: controller, maxUploadBytes: maxUploadBytes, logger: logger}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Presets は選択肢と初期値を返します。
func (h *Handlers) Presets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"styles":               domain.StylePresets(),
		"aspect_ratios":        domain.AspectRatios(),
		"default_style":        domain.DefaultStylePreset,
		"default_aspect_ratio": domain.DefaultAspectRatio,
		"default_prompt":       domain.DefaultPrompt,
		"upload_mime_types":    imgutil.UploadMIMETypes(),
	})
}

func (h *Handlers) StockModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.StockModels())
}

func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.store.Create()
	h.logger.InfoContext(r.Context(), "セッションを作成しました", "session", s.ID())
	writeJSON(w, http.StatusCreated, newSessionView(s))
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(s))
}

// UploadModel はモデル画像をアップロードします（フォーム項目 image）。
func (h *Handlers) UploadModel(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	src, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	s.SetModelImage(src)
	writeJSON(w, http.StatusOK, newSessionView(s))
}

// SelectStockModel はストックモデルをモデル画像に選びます。
func (h *Handlers) SelectStockModel(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	m, found := domain.FindStockModel(chi.URLParam(r, "stockID"))
	if !found {
		writeError(w, http.StatusNotFound, kindNotFound, "stock model not found")
		return
	}
	s.SelectStockModel(m)
	writeJSON(w, http.StatusOK, newSessionView(s))
}

// UploadProduct は商品画像をアップロードします（フォーム項目 image）。
func (h *Handlers) UploadProduct(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	src, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	s.SetProductImage(src)
	writeJSON(w, http.StatusOK, newSessionView(s))
}

// directionInput は撮影指示の入力です。省略した項目は現在の選択を引き継ぎます。
type directionInput struct {
	Prompt      *string `json:"prompt"`
	Style       *string `json:"style"`
	AspectRatio *string `json:"aspect_ratio"`
}

// Photoshoot は撮影画像の生成を開始します。?wait=true なら完了まで待ちます。
func (h *Handlers) Photoshoot(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	in, err := decodeDirection(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, err.Error())
		return
	}
	sel := s.Selection()
	prompt, style, err := in.apply(sel.Prompt, sel.Style)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, err.Error())
		return
	}
	s.SetDirection(prompt, style)

	var snap studio.Snapshot
	if wantWait(r) {
		snap = h.controller.RunPhotoshoot(r.Context(), s)
	} else {
		snap = h.controller.StartPhotoshoot(s)
	}
	writeJSON(w, statusForSnapshot(snap), newSnapshotView(s.ID(), snap))
}

// Logo はロゴ生成を開始します。?wait=true なら完了まで待ちます。
func (h *Handlers) Logo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var snap studio.Snapshot
	if wantWait(r) {
		snap = h.controller.RunLogo(r.Context(), s)
	} else {
		snap = h.controller.StartLogo(s)
	}
	writeJSON(w, statusForSnapshot(snap), newSnapshotView(s.ID(), snap))
}

// ResetLogo はロゴのスロットを空に戻します。
func (h *Handlers) ResetLogo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotView(s.ID(), s.Reset(studio.SlotLogo)))
}

// Download は生成画像を添付ファイルとして返します。?format=jpeg ならJPEGに変換します。
func (h *Handlers) Download(slot studio.Slot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.session(w, r)
		if !ok {
			return
		}
		snap := s.Snapshot(slot)
		if snap.Result == nil {
			writeError(w, http.StatusConflict, kindNotReady, "no generated image is available yet")
			return
		}

		data, mimeType, name := snap.Result.Data, snap.Result.MimeType, fileNameFor(slot)
		switch format := strings.ToLower(r.URL.Query().Get("format")); format {
		case "", "original":
		case "jpeg", "jpg":
			quality, _ := strconv.Atoi(r.URL.Query().Get("quality"))
			converted, err := imgutil.CompressToJPEG(data, quality)
			if err != nil {
				h.logger.ErrorContext(r.Context(), "JPEG変換に失敗しました", "session", s.ID(), "slot", slot, "error", err)
				writeError(w, http.StatusInternalServerError, kindInternal, "failed to convert image")
				return
			}
			data, mimeType = converted, imgutil.MIMEJPEG
			name = strings.TrimSuffix(name, ".png") + ".jpg"
		default:
			writeError(w, http.StatusBadRequest, kindBadRequest, fmt.Sprintf("unsupported format: %q", format))
			return
		}

		w.Header().Set("Content-Type", mimeType)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*studio.Session, bool) {
	s, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, kindNotFound, err.Error())
		return nil, false
	}
	return s, true
}

// readUpload はマルチパートの画像を読み、形式を検証して ImageSource にします。
func (h *Handlers) readUpload(w http.ResponseWriter, r *http.Request) (domain.ImageSource, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, kindTooLarge, "image is too large")
			return domain.ImageSource{}, false
		}
		writeError(w, http.StatusBadRequest, kindBadRequest, "multipart form with an image field is required")
		return domain.ImageSource{}, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, "image field is required")
		return domain.ImageSource{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, "failed to read image")
		return domain.ImageSource{}, false
	}
	if int64(len(data)) > h.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, kindTooLarge, "image is too large")
		return domain.ImageSource{}, false
	}

	mimeType := imgutil.NormalizeMIMEType(header.Header.Get("Content-Type"))
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = imgutil.DetectMIMEType(data)
	}
	if !imgutil.IsUploadMIMEType(mimeType) {
		writeError(w, http.StatusUnsupportedMediaType, kindUnsupportedMedia,
			fmt.Sprintf("unsupported image type %q (allowed: %s)", mimeType, strings.Join(imgutil.UploadMIMETypes(), ", ")))
		return domain.ImageSource{}, false
	}
	if err := imgutil.Validate(data, mimeType); err != nil {
		writeError(w, http.StatusUnsupportedMediaType, kindUnsupportedMedia, err.Error())
		return domain.ImageSource{}, false
	}
	return domain.NewLocalSource(data, mimeType), true
}

func decodeDirection(r *http.Request) (directionInput, error) {
	var in directionInput
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if r.ContentLength == 0 {
			return in, nil
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
			return in, fmt.Errorf("invalid JSON body: %w", err)
		}
		return in, nil
	}

	if err := r.ParseForm(); err != nil {
		return in, fmt.Errorf("invalid form body: %w", err)
	}
	for key, dst := range map[string]**string{"prompt": &in.Prompt, "style": &in.Style, "aspect_ratio": &in.AspectRatio} {
		if vs, ok := r.PostForm[key]; ok && len(vs) > 0 {
			v := vs[0]
			*dst = &v
		}
	}
	return in, nil
}

// apply は入力を現在の選択に重ねます。
func (in directionInput) apply(prompt string, style domain.StyleSelection) (string, domain.StyleSelection, error) {
	if in.Prompt != nil {
		prompt = *in.Prompt
	}
	if in.Style != nil {
		preset, err := domain.ParseStylePreset(*in.Style)
		if err != nil {
			return "", style, err
		}
		style.Preset = preset
	}
	if in.AspectRatio != nil {
		ratio, err := domain.ParseAspectRatio(*in.AspectRatio)
		if err != nil {
			return "", style, err
		}
		style.AspectRatio = ratio
	}
	return prompt, style, nil
}

func wantWait(r *http.Request) bool {
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	return wait
}
