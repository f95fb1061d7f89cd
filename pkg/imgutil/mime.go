package imgutil

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"mime"
	"net/http"
	"strings"
)

const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEWebP = "image/webp"
	MIMEGIF  = "image/gif"
)

// ErrUnsupportedFormat はアップロードを受け付けない形式であることを示します。
var ErrUnsupportedFormat = errors.New("unsupported image format")

// UploadMIMETypes はアップロードで受け付けるメディアタイプです。
func UploadMIMETypes() []string {
	return []string{MIMEPNG, MIMEJPEG, MIMEWebP}
}

// formatToMIME は image.DecodeConfig が返すフォーマット名との対応表です。
var formatToMIME = map[string]string{
	"png":  MIMEPNG,
	"jpeg": MIMEJPEG,
	"webp": MIMEWebP,
	"gif":  MIMEGIF,
}

// NormalizeMIMEType は Content-Type ヘッダ等からパラメータを除き、小文字化します。
func NormalizeMIMEType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	if mt == "image/jpg" {
		return MIMEJPEG
	}
	return mt
}

// IsImageMIMEType は image/ で始まるメディアタイプかどうかを返します。
func IsImageMIMEType(mimeType string) bool {
	return strings.HasPrefix(NormalizeMIMEType(mimeType), "image/")
}

// DetectMIMEType はバイト列の先頭からメディアタイプを推定します。
func DetectMIMEType(data []byte) string {
	return NormalizeMIMEType(http.DetectContentType(data))
}

// Validate は画像ヘッダをデコードし、宣言されたメディアタイプと一致するか確認します。
func Validate(data []byte, mimeType string) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrUnsupportedFormat)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	decoded, ok := formatToMIME[format]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if declared := NormalizeMIMEType(mimeType); declared != decoded {
		return fmt.Errorf("%w: declared %s but payload is %s", ErrUnsupportedFormat, declared, decoded)
	}
	return nil
}

// IsUploadMIMEType はアップロード可能な形式かどうかを返します。
func IsUploadMIMEType(mimeType string) bool {
	mt := NormalizeMIMEType(mimeType)
	for _, allowed := range UploadMIMETypes() {
		if mt == allowed {
			return true
		}
	}
	return false
}

// DataURL は data:<mime>;base64,<payload> 形式の文字列を作ります。
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
