// Package config は環境変数（と任意の .env ファイル）からサーバー設定を読み込みます。
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/shouni/gemini-photoshoot-kit/pkg/generator"
)

// ErrMissingAPIKey は API_KEY / GEMINI_API_KEY のどちらも設定されていないことを示します。
// 起動時の唯一の致命的エラーです。
var ErrMissingAPIKey = errors.New("API_KEY (or GEMINI_API_KEY) is required")

// Config はサーバー全体の設定です。
type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	APIKey     string
	ImageModel string
	LogoModel  string

	GenerationTimeout time.Duration
	FetchTimeout      time.Duration
	MaxUploadBytes    int64
	SessionTTL        time.Duration
	AllowPrivateFetch bool

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadDotEnv は .env.local と .env を読み込みます。既に設定済みの環境変数は上書きしません。
// ファイルが無い場合は何もしません。
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env.local", ".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load は環境変数から設定を読み込み、既定値を適用します。
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		APIKey:            strings.TrimSpace(getEnv("API_KEY", os.Getenv("GEMINI_API_KEY"))),
		ImageModel:        getEnv("IMAGE_MODEL", generator.DefaultImageModel),
		LogoModel:         getEnv("LOGO_MODEL", generator.DefaultLogoModel),
		GenerationTimeout: time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 120)),
		FetchTimeout:      time.Second * time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)),
		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_MB", 20)) << 20,
		SessionTTL:        time.Minute * time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)),
		AllowPrivateFetch: getEnvBool("ALLOW_PRIVATE_FETCH", false),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return cfg, nil
}

// IsDevelopment は開発環境かどうかを返します。
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// 0以下や数値でない値は既定値に戻す
func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
