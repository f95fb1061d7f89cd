package domain

import "fmt"

// ダウンロード時のファイル名（操作種別ごとに固定）
const (
	PhotoshootFileName = "aftab-photoshoot.png"
	LogoFileName       = "aftab-logo.png"
)

// StockModel はアップロードの代わりに選べるモデル写真です。
type StockModel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

var stockModels = func() []StockModel {
	models := make([]StockModel, 0, 6)
	for i := 1; i <= 6; i++ {
		models = append(models, StockModel{
			ID:   fmt.Sprintf("%d", i),
			Name: fmt.Sprintf("Model %d", i),
			URL:  fmt.Sprintf("https://picsum.photos/seed/model%d/512/512", i),
		})
	}
	return models
}()

// StockModels はストックモデルの一覧を返します。返り値は呼び出し側で変更して構いません。
func StockModels() []StockModel {
	out := make([]StockModel, len(stockModels))
	copy(out, stockModels)
	return out
}

// DefaultStockModel はセッション開始時に選択されているモデルです。
func DefaultStockModel() StockModel {
	return stockModels[0]
}

// FindStockModel はIDからストックモデルを探します。
func FindStockModel(id string) (StockModel, bool) {
	for _, m := range stockModels {
		if m.ID == id {
			return m, true
		}
	}
	return StockModel{}, false
}

// Source はストックモデルを RemoteReference として返します。
func (m StockModel) Source() ImageSource {
	return NewRemoteSource(m.URL)
}
