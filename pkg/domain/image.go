package domain

import (
	"encoding/base64"
	"fmt"

	"github.com/shouni/gemini-photoshoot-kit/pkg/imgutil"
)

// SourceKind は ImageSource がどちらの変種を保持しているかを示します。
type SourceKind int

const (
	// SourceNone はゼロ値（未選択）です。
	SourceNone SourceKind = iota
	// SourceLocal はアップロードされたバイナリです。
	SourceLocal
	// SourceRemote はURLで参照される画像です。取得してから使います。
	SourceRemote
)

func (k SourceKind) String() string {
	switch k {
	case SourceLocal:
		return "local"
	case SourceRemote:
		return "remote"
	default:
		return "none"
	}
}

// LocalBinary はブラウザ等から受け取った生の画像バイト列と宣言されたメディアタイプです。
type LocalBinary struct {
	Data     []byte
	MIMEType string
}

// RemoteReference は取得前の画像URLです。
type RemoteReference struct {
	URL string
}

// ImageSource は LocalBinary と RemoteReference の直和型です。
// コンストラクタ経由でのみ値を持つため、常にどちらか一方だけが設定されます。
type ImageSource struct {
	kind   SourceKind
	local  LocalBinary
	remote RemoteReference
}

// NewLocalSource はアップロード画像から ImageSource を作成します。
func NewLocalSource(data []byte, mimeType string) ImageSource {
	return ImageSource{kind: SourceLocal, local: LocalBinary{Data: data, MIMEType: mimeType}}
}

// NewRemoteSource はURLから ImageSource を作成します。
func NewRemoteSource(url string) ImageSource {
	return ImageSource{kind: SourceRemote, remote: RemoteReference{URL: url}}
}

// Kind は保持している変種を返します。
func (s ImageSource) Kind() SourceKind { return s.kind }

// IsZero は画像が選択されていない状態かどうかを返します。
func (s ImageSource) IsZero() bool { return s.kind == SourceNone }

// Local は LocalBinary を返します。Kind が SourceLocal でない場合 ok は false です。
func (s ImageSource) Local() (LocalBinary, bool) {
	return s.local, s.kind == SourceLocal
}

// Remote は RemoteReference を返します。Kind が SourceRemote でない場合 ok は false です。
func (s ImageSource) Remote() (RemoteReference, bool) {
	return s.remote, s.kind == SourceRemote
}

func (s ImageSource) String() string {
	switch s.kind {
	case SourceLocal:
		return fmt.Sprintf("local(%s, %d bytes)", s.local.MIMEType, len(s.local.Data))
	case SourceRemote:
		return fmt.Sprintf("remote(%s)", s.remote.URL)
	default:
		return "none"
	}
}

// EncodedImagePart は送信用に正規化された画像です。Data は標準base64です。
type EncodedImagePart struct {
	MIMEType string
	Data     string
}

// NewEncodedImagePart はバイト列をbase64に変換して EncodedImagePart を作ります。
func NewEncodedImagePart(mimeType string, data []byte) EncodedImagePart {
	return EncodedImagePart{
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}
}

// Bytes は元のバイト列に復号します。
func (p EncodedImagePart) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, fmt.Errorf("画像パーツのbase64復号に失敗しました: %w", err)
	}
	return data, nil
}

// PhotoshootRequest はユーザー操作1回分の撮影生成要求です。
type PhotoshootRequest struct {
	ModelImage   ImageSource
	ProductImage ImageSource
	Prompt       string
	Style        StyleSelection
}

// GenerationRequest は正規化済みの2画像と合成済み指示文をまとめたものです。
// 1回の操作ごとに新しく組み立て、以後変更しません。
type GenerationRequest struct {
	Model       EncodedImagePart
	Product     EncodedImagePart
	Instruction string
	AspectRatio AspectRatio
}

// ImageResponse は生成された画像データとそのメタデータです。
type ImageResponse struct {
	Data     []byte
	MimeType string
}

// DataURL はそのまま表示できる data URL を返します。
func (r *ImageResponse) DataURL() string {
	return imgutil.DataURL(r.MimeType, r.Data)
}
