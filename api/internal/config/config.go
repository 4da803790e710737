package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string
	LogMode       string
	BotToken      string
	WebhookURL    string
	PublicBaseURL string
	UploadDir     string

	StabilityAPIKey        string
	StabilityAPIURL        string
	StabilityDefaultPrompt string

	HTTPTimeout        time.Duration
	HTTPConnectTimeout time.Duration
	TranslateTimeout   time.Duration // на один вызов провайдера перевода
	MaxMaskPixels      int

	// переводчики (любой опционален)
	DeepLAPIKey          string
	DeepLAPIURL          string
	LibreTranslateURL    string
	LibreTranslateAPIKey string
	YCOAuthToken         string
	YCFolderID           string
	GeminiAPIKey         string
	GeminiModel          string
	OpenAIAPIKey         string
	OpenAIModel          string

	// хранилище "последнего изображения": memory | postgres | redis
	StoreBackend  string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	v *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_MODE", "debug")
	v.SetDefault("BOT_TOKEN", "")
	v.SetDefault("WEBHOOK_URL", "")
	v.SetDefault("PUBLIC_BASE_URL", "https://funfishinggame.store")
	v.SetDefault("UPLOAD_DIR", "./uploads")

	v.SetDefault("STABILITY_API_KEY", "")
	v.SetDefault("STABILITY_API_URL", "https://api.stability.ai/v2beta/stable-image/edit/inpaint")
	v.SetDefault("STABILITY_DEFAULT_PROMPT", "inpaint")

	v.SetDefault("HTTP_TIMEOUT", 180*time.Second)
	v.SetDefault("HTTP_CONNECT_TIMEOUT", 30*time.Second)
	v.SetDefault("TRANSLATE_TIMEOUT", 20*time.Second)
	v.SetDefault("MAX_MASK_PIXELS", 40_000_000)

	v.SetDefault("DEEPL_API_KEY", "")
	v.SetDefault("DEEPL_API_URL", "https://api-free.deepl.com/v2/translate")
	v.SetDefault("LIBRETRANSLATE_URL", "https://libretranslate.com")
	v.SetDefault("LIBRETRANSLATE_API_KEY", "")
	v.SetDefault("YC_OAUTH_TOKEN", "")
	v.SetDefault("YC_FOLDER_ID", "")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")

	v.SetDefault("STORE_BACKEND", "memory")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TTL", time.Duration(0))
}

// Load читает необязательный dotenv-файл (path) и переменные окружения.
// Окружение имеет приоритет над файлом.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	cfg := &Config{
		Port:          strings.TrimSpace(v.GetString("PORT")),
		LogMode:       strings.TrimSpace(v.GetString("LOG_MODE")),
		BotToken:      strings.TrimSpace(v.GetString("BOT_TOKEN")),
		WebhookURL:    strings.TrimSpace(v.GetString("WEBHOOK_URL")),
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(v.GetString("PUBLIC_BASE_URL")), "/"),
		UploadDir:     strings.TrimSpace(v.GetString("UPLOAD_DIR")),

		StabilityAPIKey:        strings.TrimSpace(v.GetString("STABILITY_API_KEY")),
		StabilityAPIURL:        strings.TrimSpace(v.GetString("STABILITY_API_URL")),
		StabilityDefaultPrompt: v.GetString("STABILITY_DEFAULT_PROMPT"),

		HTTPTimeout:        v.GetDuration("HTTP_TIMEOUT"),
		HTTPConnectTimeout: v.GetDuration("HTTP_CONNECT_TIMEOUT"),
		TranslateTimeout:   v.GetDuration("TRANSLATE_TIMEOUT"),
		MaxMaskPixels:      v.GetInt("MAX_MASK_PIXELS"),

		DeepLAPIKey:          strings.TrimSpace(v.GetString("DEEPL_API_KEY")),
		DeepLAPIURL:          strings.TrimSpace(v.GetString("DEEPL_API_URL")),
		LibreTranslateURL:    strings.TrimRight(strings.TrimSpace(v.GetString("LIBRETRANSLATE_URL")), "/"),
		LibreTranslateAPIKey: strings.TrimSpace(v.GetString("LIBRETRANSLATE_API_KEY")),
		YCOAuthToken:         strings.TrimSpace(v.GetString("YC_OAUTH_TOKEN")),
		YCFolderID:           strings.TrimSpace(v.GetString("YC_FOLDER_ID")),
		GeminiAPIKey:         strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		GeminiModel:          strings.TrimSpace(v.GetString("GEMINI_MODEL")),
		OpenAIAPIKey:         strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
		OpenAIModel:          strings.TrimSpace(v.GetString("OPENAI_MODEL")),

		StoreBackend:  strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		DatabaseURL:   strings.TrimSpace(v.GetString("DATABASE_URL")),
		RedisAddr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		RedisTTL:      v.GetDuration("REDIS_TTL"),

		v: v,
	}

	if cfg.StabilityAPIKey == "" {
		return nil, errors.New("missing required config STABILITY_API_KEY")
	}
	switch cfg.StoreBackend {
	case "memory", "postgres", "redis":
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q: use memory | postgres | redis", cfg.StoreBackend)
	}
	if cfg.HTTPConnectTimeout <= 0 || cfg.HTTPTimeout <= 0 {
		return nil, errors.New("HTTP_TIMEOUT and HTTP_CONNECT_TIMEOUT must be > 0")
	}
	if cfg.HTTPConnectTimeout > cfg.HTTPTimeout {
		cfg.HTTPConnectTimeout = cfg.HTTPTimeout
	}
	if cfg.TranslateTimeout <= 0 || cfg.TranslateTimeout > cfg.HTTPTimeout {
		cfg.TranslateTimeout = cfg.HTTPTimeout
	}
	return cfg, nil
}

// ResolveDSN — DATABASE_URL либо DSN, собранный из POSTGRES_* / PG*.
func (c *Config) ResolveDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	user := c.getDefault("POSTGRES_USER", "inpaintbot")
	pass := c.getDefault("POSTGRES_PASSWORD", "")
	host := c.getDefault("PGHOST", "db")
	port := c.getDefault("PGPORT", "5432")
	db := c.getDefault("POSTGRES_DB", "inpaintbot")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (c *Config) getDefault(key, def string) string {
	if c.v == nil {
		return def
	}
	if s := strings.TrimSpace(c.v.GetString(key)); s != "" {
		return s
	}
	return def
}

// UploadsPrefix — публичный префикс собственных загрузок.
func (c *Config) UploadsPrefix() string {
	return c.PublicBaseURL + "/uploads/"
}
