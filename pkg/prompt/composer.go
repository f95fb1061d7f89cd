// Package prompt は撮影スタイルとユーザー入力から画像生成用の指示文を組み立てます。
package prompt

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-photoshoot-kit/pkg/domain"
)

// TaskDirective は商品をシーンに合成させるための固定の指示です。
const TaskDirective = "Seamlessly integrate the provided product into the scene with the model. " +
	"Pay close attention to realistic lighting, shadows, reflections, and perspective. " +
	"The model should interact with the product naturally."

// LogoPrompt はロゴ生成で使う固定プロンプトです。ユーザー入力は含みません。
const LogoPrompt = "A futuristic and clean logo for a web application called 'aftab'. " +
	"The logo should be an abstract, minimalist icon incorporating neon highlights in cyan and blue on a dark background, " +
	"perhaps incorporating the letter 'A'. It should be professional and suitable for a modern AI tool. " +
	"Style: vector, sharp lines."

var presetClauses = map[domain.StylePreset]string{
	domain.StyleProfessionalStudio: "The setting is a professional photography studio with clean, controlled lighting, " +
		"and a neutral or subtly textured background. The image should be sharp, well-lit, " +
		"and focus on the product and model with a commercial look.",
	domain.StyleOutdoorLifestyle: "The setting is a vibrant outdoor environment that complements the product. " +
		"Use natural lighting (e.g., golden hour sun, bright daylight) to create an authentic, aspirational lifestyle shot.",
	domain.StyleSocialMediaAesthetic: "Create a trendy, eye-catching image suitable for Instagram or Pinterest. " +
		"It should have a modern aesthetic, possibly with bold colors, creative composition, or a popular filter style. " +
		"The mood should be engaging and shareable.",
	domain.StyleECommerce: "The setting should be a clean, pure white or very light gray background, " +
		"typical for Amazon or other e-commerce platforms. " +
		"The lighting must be even and bright, eliminating most shadows to clearly showcase the product.",
}

// Preamble は解像度と縦横比を指定する前置きです。
func Preamble(ratio domain.AspectRatio) string {
	return fmt.Sprintf("Generate a high-resolution, photorealistic image with an aspect ratio of %s. ", ratio)
}

// PresetClause はスタイルごとの説明文を返します。未知のスタイルは空文字です。
func PresetClause(preset domain.StylePreset) string {
	return presetClauses[preset]
}

// Compose は指示文全体を組み立てます。userText はエスケープせず引用符で囲むだけです。
func Compose(style domain.StyleSelection, userText string) string {
	var b strings.Builder
	b.WriteString(Preamble(style.AspectRatio))
	b.WriteString(PresetClause(style.Preset))
	b.WriteString("\n\nTask: ")
	b.WriteString(TaskDirective)
	b.WriteString("\n\nUser's Creative Direction: \"")
	b.WriteString(userText)
	b.WriteString("\"")
	return b.String()
}
