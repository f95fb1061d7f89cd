package server

import (
	"time"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
	"github.com/shouni/gemini-photoshoot-kit/pkg/studio"
)

type imageSourceView struct {
	Kind     string `json:"kind"`
	StockID  string `json:"stock_id,omitempty"`
	URL      string `json:"url,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	Bytes    int    `json:"bytes,omitempty"`
}

type selectionView struct {
	Model       imageSourceView    `json:"model"`
	Product     imageSourceView    `json:"product"`
	Prompt      string             `json:"prompt"`
	Style       domain.StylePreset `json:"style"`
	AspectRatio domain.AspectRatio `json:"aspect_ratio"`
}

type imageView struct {
	MIMEType    string `json:"mime_type"`
	DataURL     string `json:"data_url"`
	FileName    string `json:"file_name"`
	DownloadURL string `json:"download_url"`
}

type snapshotView struct {
	Slot      studio.Slot  `json:"slot"`
	Phase     studio.Phase `json:"phase"`
	Token     uint64       `json:"token"`
	UpdatedAt time.Time    `json:"updated_at"`
	Image     *imageView   `json:"image,omitempty"`
	Error     *errorBody   `json:"error,omitempty"`
}

type sessionView struct {
	ID         string        `json:"id"`
	Selection  selectionView `json:"selection"`
	Photoshoot snapshotView  `json:"photoshoot"`
	Logo       snapshotView  `json:"logo"`
}

func newImageSourceView(src domain.ImageSource, stockID string) imageSourceView {
	v := imageSourceView{Kind: src.Kind().String(), StockID: stockID}
	switch src.Kind() {
	case domain.SourceLocal:
		local, _ := src.Local()
		v.MIMEType = local.MIMEType
		v.Bytes = len(local.Data)
	case domain.SourceRemote:
		remote, _ := src.Remote()
		v.URL = remote.URL
	}
	return v
}

func newSnapshotView(sessionID string, snap studio.Snapshot) snapshotView {
	v := snapshotView{
		Slot:      snap.Slot,
		Phase:     snap.Phase,
		Token:     snap.Token,
		UpdatedAt: snap.UpdatedAt,
	}
	if snap.Result != nil {
		v.Image = &imageView{
			MIMEType:    snap.Result.MimeType,
			DataURL:     snap.Result.DataURL(),
			FileName:    fileNameFor(snap.Slot),
			DownloadURL: "/api/sessions/" + sessionID + "/" + string(snap.Slot) + "/download",
		}
	}
	if snap.Err != nil {
		v.Error = &errorBody{Kind: snap.ErrorKind, Message: snap.Err.Error()}
	}
	return v
}

func newSessionView(s *studio.Session) sessionView {
	sel := s.Selection()
	return sessionView{
		ID: s.ID(),
		Selection: selectionView{
			Model:       newImageSourceView(sel.ModelImage, sel.ModelStockID),
			Product:     newImageSourceView(sel.ProductImage, ""),
			Prompt:      sel.Prompt,
			Style:       sel.Style.Preset,
			AspectRatio: sel.Style.AspectRatio,
		},
		Photoshoot: newSnapshotView(s.ID(), s.Snapshot(studio.SlotPhotoshoot)),
		Logo:       newSnapshotView(s.ID(), s.Snapshot(studio.SlotLogo)),
	}
}

func fileNameFor(slot studio.Slot) string {
	if slot == studio.SlotLogo {
		return domain.LogoFileName
	}
	return domain.PhotoshootFileName
}
