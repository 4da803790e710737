// Package app собирает зависимости сервиса из конфига: хранилище последнего
// изображения, папку загрузок, цепочку переводчиков, клиент Stability и
// оркестратор. Общая часть для бинарников bot и inpaint-api.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"inpaint-bot/api/internal/config"
	"inpaint-bot/api/internal/httpapi"
	"inpaint-bot/api/internal/inpaint"
	"inpaint-bot/api/internal/inpaint/stability"
	"inpaint-bot/api/internal/store"
	"inpaint-bot/api/internal/translate"
	"inpaint-bot/api/internal/translate/deepl"
	"inpaint-bot/api/internal/translate/gemini"
	"inpaint-bot/api/internal/translate/libre"
	"inpaint-bot/api/internal/translate/openai"
	"inpaint-bot/api/internal/translate/yandex"
	"inpaint-bot/api/internal/uploads"
	"inpaint-bot/api/internal/util"
)

type App struct {
	Config     *config.Config
	Log        *zap.Logger
	Uploads    *uploads.Store
	Images     store.LastImageStore
	Translator *translate.Chain
	Inpaint    *inpaint.Orchestrator
	Health     []httpapi.HealthCheck

	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}
	httpc := util.NewHTTPClient(cfg.HTTPTimeout, cfg.HTTPConnectTimeout)

	a.Uploads = uploads.New(cfg.UploadDir, cfg.PublicBaseURL, httpc)
	if err := a.Uploads.Init(); err != nil {
		return nil, fmt.Errorf("uploads dir: %w", err)
	}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Translator = translate.NewChain(log.Named("translate"), cfg.TranslateTimeout,
		deepl.New(httpc, cfg.DeepLAPIURL, cfg.DeepLAPIKey),
		libre.New(httpc, cfg.LibreTranslateURL, cfg.LibreTranslateAPIKey),
		yandex.New(httpc, cfg.YCOAuthToken, cfg.YCFolderID),
		gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		openai.New(httpc, cfg.OpenAIAPIKey, cfg.OpenAIModel),
	)
	log.Info("translation chain", zap.Strings("providers", a.Translator.Providers()))

	a.Inpaint = &inpaint.Orchestrator{
		Images:        a.Images,
		Source:        a.Uploads,
		Translator:    a.Translator,
		Editor:        stability.New(httpc, cfg.StabilityAPIURL, cfg.StabilityAPIKey),
		DefaultPrompt: cfg.StabilityDefaultPrompt,
		MaxMaskPixels: cfg.MaxMaskPixels,
		StageTimeout:  cfg.HTTPTimeout,
		Log:           log.Named("inpaint"),
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.StoreBackend {
	case "postgres":
		dsn := cfg.ResolveDSN()
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return fmt.Errorf("sql.Open: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		// пул под небольшую нагрузку
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			return fmt.Errorf("db.Ping: %w", err)
		}
		repo := store.NewPostgresLastImage(db)
		if err := repo.Migrate(pingCtx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		a.Log.Info("db connected", zap.String("dsn", safeDSNSummary(dsn)))
		a.Images = repo
		a.Health = append(a.Health, httpapi.HealthCheck{Name: "db", Check: db.PingContext})

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		rs := store.NewRedisLastImage(client, cfg.RedisTTL)
		a.closers = append(a.closers, rs.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rs.Ping(pingCtx); err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		a.Log.Info("redis connected", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
		a.Images = rs
		a.Health = append(a.Health, httpapi.HealthCheck{Name: "redis", Check: rs.Ping})

	default:
		a.Images = store.NewMemoryLastImage()
	}
	return nil
}

// Server — HTTP-поверхность поверх собранных зависимостей.
func (a *App) Server() *httpapi.Server {
	return &httpapi.Server{
		UploadDir: a.Config.UploadDir,
		Uploads:   a.Uploads,
		Images:    a.Images,
		Inpaint:   a.Inpaint,
		Health:    a.Health,
		Log:       a.Log.Named("http"),
	}
}

// Close закрывает соединения в обратном порядке открытия.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Log.Warn("close", zap.Error(err))
		}
	}
	a.closers = nil
}

func safeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}
