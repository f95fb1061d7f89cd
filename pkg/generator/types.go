package generator

const (
	DefaultImageModel = "gemini-2.5-flash-image-preview"
	DefaultLogoModel  = "imagen-4.0-generate-001"

	// ロゴは常に正方形のPNGを1枚だけ生成する
	LogoMIMEType    = "image/png"
	LogoAspectRatio = "1:1"
	logoImageCount  = 1

	modalityImage = "IMAGE"
	modalityText  = "TEXT"
)

// Config は GeminiGenerator が使うモデル名です。空の場合は既定値を使います。
type Config struct {
	ImageModel string
	LogoModel  string
}

func (c Config) withDefaults() Config {
	if c.ImageModel == "" {
		c.ImageModel = DefaultImageModel
	}
	if c.LogoModel == "" {
		c.LogoModel = DefaultLogoModel
	}
	return c
}
