package domain

import "fmt"

// StylePreset は撮影スタイルの種類です。列挙値以外は想定しません。
type StylePreset string

const (
	StyleProfessionalStudio   StylePreset = "Professional Studio"
	StyleOutdoorLifestyle     StylePreset = "Outdoor Lifestyle"
	StyleSocialMediaAesthetic StylePreset = "Social Media Aesthetic"
	StyleECommerce            StylePreset = "E-commerce"
)

// AspectRatio は生成画像の縦横比です。
type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
	AspectSquare    AspectRatio = "1:1"
)

// UI の初期値
const (
	DefaultPrompt                  = "The model is holding the product in a natural, relaxed pose."
	DefaultStylePreset StylePreset = StyleProfessionalStudio
	DefaultAspectRatio AspectRatio = AspectSquare
)

// StylePresets は選択可能なスタイルを表示順で返します。
func StylePresets() []StylePreset {
	return []StylePreset{
		StyleProfessionalStudio,
		StyleOutdoorLifestyle,
		StyleSocialMediaAesthetic,
		StyleECommerce,
	}
}

// AspectRatios は選択可能な縦横比を表示順で返します。
func AspectRatios() []AspectRatio {
	return []AspectRatio{AspectLandscape, AspectPortrait, AspectSquare}
}

// ParseStylePreset は文字列を StylePreset に変換します。完全一致のみ受け付けます。
func ParseStylePreset(s string) (StylePreset, error) {
	for _, p := range StylePresets() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown style preset: %q", s)
}

// ParseAspectRatio は文字列を AspectRatio に変換します。
func ParseAspectRatio(s string) (AspectRatio, error) {
	for _, r := range AspectRatios() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown aspect ratio: %q", s)
}

// StyleSelection はリクエストごとに確定するスタイルと縦横比の組です。
type StyleSelection struct {
	Preset      StylePreset
	AspectRatio AspectRatio
}

// DefaultStyleSelection は UI の初期選択を返します。
func DefaultStyleSelection() StyleSelection {
	return StyleSelection{Preset: DefaultStylePreset, AspectRatio: DefaultAspectRatio}
}
