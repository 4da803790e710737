// Package uploads — локальная папка принятых изображений, которую сервер
// раздаёт по PUBLIC_BASE_URL/uploads/.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/webp"

	"inpaint-bot/api/internal/util"
)

type Store struct {
	Dir           string
	PublicBaseURL string

	httpc *http.Client
	now   func() time.Time
}

func New(dir, publicBaseURL string, httpc *http.Client) *Store {
	return &Store{
		Dir:           dir,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		httpc:         httpc,
		now:           time.Now,
	}
}

// Init создаёт папку загрузок.
func (s *Store) Init() error {
	return os.MkdirAll(s.Dir, 0o755)
}

// Prefix — публичный префикс собственных загрузок.
func (s *Store) Prefix() string { return s.PublicBaseURL + "/uploads/" }

// Save пишет изображение как <unix>_<uuid><ext>. webp перекодируется в png,
// при ошибке декодирования остаётся как есть.
func (s *Store) Save(data []byte, ext string) (localPath, publicURL string, err error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		ext = ".jpg"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ext == ".webp" {
		if converted, err := webpToPNG(data); err == nil {
			data, ext = converted, ".png"
		}
	}

	name := fmt.Sprintf("%d_%s%s", s.now().Unix(), strings.ReplaceAll(uuid.NewString(), "-", ""), ext)
	localPath = filepath.Join(s.Dir, name)
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("save upload: %w", err)
	}
	return localPath, s.Prefix() + name, nil
}

func webpToPNG(data []byte) ([]byte, error) {
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LocalPath сопоставляет ссылку из собственного namespace с файлом в Dir.
func (s *Store) LocalPath(ref string) (string, bool) {
	prefix := s.Prefix()
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, prefix)
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	// только имя файла, без подкаталогов и ".."
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return filepath.Join(s.Dir, name), true
}

// Resolve возвращает байты исходника: локальный файл для своих ссылок, иначе загрузка по сети.
func (s *Store) Resolve(ctx context.Context, ref string) ([]byte, error) {
	if p, ok := s.LocalPath(ref); ok {
		b, err := os.ReadFile(p)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		// файла нет локально — пробуем по сети, как любой другой URL
	}
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return nil, fmt.Errorf("unsupported image reference %q", util.Truncate(ref, 120))
	}
	return util.Download(ctx, s.httpc, ref)
}
