// Package httpapi — HTTP-поверхность сервиса: healthz, раздача uploads,
// вебхук Telegram и JSON/multipart API для тех же операций, что и бот.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inpaint-bot/api/internal/inpaint"
	"inpaint-bot/api/internal/logging"
	"inpaint-bot/api/internal/store"
	"inpaint-bot/api/internal/util"
)

const (
	userHeader    = "X-User-ID"
	captionHeader = "X-Caption"

	maxUploadBytes  = 20 << 20
	maxPayloadBytes = 8 << 20
)

type Uploader interface {
	Save(data []byte, ext string) (localPath, publicURL string, err error)
}

type Inpainter interface {
	Run(ctx context.Context, userID int64, p inpaint.Payload) (*inpaint.Result, error)
}

// HealthCheck — проверка зависимости для /healthz (ping БД, redis).
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	UploadDir string
	Uploads   Uploader
	Images    store.LastImageStore
	Inpaint   Inpainter
	Health    []HealthCheck

	// вебхук Telegram; пустой путь — режим polling
	WebhookPath    string
	WebhookHandler http.Handler

	Log *zap.Logger
}

// Handler собирает gin-роутер.
func (s *Server) Handler() http.Handler {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.Gin(log))

	r.GET("/healthz", s.healthz)
	if s.UploadDir != "" {
		r.Static("/uploads", s.UploadDir)
	}
	if s.WebhookPath != "" && s.WebhookHandler != nil {
		r.POST(s.WebhookPath, gin.WrapH(s.WebhookHandler))
	}

	v1 := r.Group("/v1")
	v1.POST("/uploads", s.upload)
	v1.POST("/inpaint", s.inpaint)
	return r
}

// Run слушает addr до отмены ctx, затем мягко останавливается.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	for _, h := range s.Health {
		if err := h.Check(ctx); err != nil {
			c.String(http.StatusServiceUnavailable, "%s: not ok\n%s", h.Name, err.Error())
			return
		}
	}
	c.String(http.StatusOK, "ok")
}

func (s *Server) upload(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"image\" is required"})
		return
	}
	if fh.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mime := util.SniffMimeHTTP(data)
	if !strings.HasPrefix(mime, "image/") {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "not a jpeg, png or webp image"})
		return
	}

	_, publicURL, err := s.Uploads.Save(data, util.ExtForMime(mime))
	if err != nil {
		s.logger().Error("save upload", zap.Int64("user_id", uid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save image"})
		return
	}
	if err := s.Images.Set(c.Request.Context(), uid, publicURL); err != nil {
		s.logger().Warn("remember last image", zap.Int64("user_id", uid), zap.Error(err))
	}
	c.JSON(http.StatusCreated, gin.H{"url": publicURL})
}

func (s *Server) inpaint(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := inpaint.ParsePayload(body)
	if err != nil {
		writeStageError(c, err)
		return
	}
	res, err := s.Inpaint.Run(c.Request.Context(), uid, p)
	if err != nil {
		writeStageError(c, err)
		return
	}
	c.Header(captionHeader, url.QueryEscape(res.Caption))
	c.Data(http.StatusOK, "image/png", res.Image)
}

func writeStageError(c *gin.Context, err error) {
	stage := inpaint.StageOf(err)
	status := http.StatusInternalServerError
	switch stage {
	case inpaint.StageValidate, inpaint.StageMask:
		status = http.StatusBadRequest
	case inpaint.StageSource, inpaint.StageEdit:
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"stage": string(stage), "error": inpaint.UserMessage(err)})
}

func userID(c *gin.Context) (int64, bool) {
	raw := strings.TrimSpace(c.GetHeader(userHeader))
	id, err := strconv.ParseInt(raw, 10, 64)
	if raw == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "header " + userHeader + " must be an integer user id"})
		return 0, false
	}
	return id, true
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
