package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"inpaint-bot/api/internal/inpaint"
	"inpaint-bot/api/internal/store"
)

func init() { gin.SetMode(gin.TestMode) }

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 1, 2, 3}

type fakeUploads struct{ saved int }

func (u *fakeUploads) Save(_ []byte, ext string) (string, string, error) {
	u.saved++
	return "/tmp/x" + ext, "https://example.com/uploads/x" + ext, nil
}

type fakeInpaint struct {
	res *inpaint.Result
	err error
	uid int64
}

func (f *fakeInpaint) Run(_ context.Context, uid int64, _ inpaint.Payload) (*inpaint.Result, error) {
	f.uid = uid
	return f.res, f.err
}

func newTestServer(t *testing.T) (*Server, *fakeUploads, *fakeInpaint) {
	t.Helper()
	up := &fakeUploads{}
	inp := &fakeInpaint{}
	return &Server{
		UploadDir: t.TempDir(),
		Uploads:   up,
		Images:    store.NewMemoryLastImage(),
		Inpaint:   inp,
	}, up, inp
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t)
	if rec := do(s.Handler(), httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	s.Health = []HealthCheck{{Name: "db", Check: func(context.Context) error { return errors.New("down") }}}
	rec := do(s.Handler(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.HasPrefix(rec.Body.String(), "db: not ok") {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestServesUploads(t *testing.T) {
	s, _, _ := newTestServer(t)
	if err := os.WriteFile(filepath.Join(s.UploadDir, "a.png"), pngMagic, 0o644); err != nil {
		t.Fatal(err)
	}
	rec := do(s.Handler(), httptest.NewRequest(http.MethodGet, "/uploads/a.png", nil))
	if rec.Code != http.StatusOK || !bytes.Equal(rec.Body.Bytes(), pngMagic) {
		t.Fatalf("static = %d %q", rec.Code, rec.Body.Bytes())
	}
}

func multipartImage(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("image", "photo.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestUploadRemembersLastImage(t *testing.T) {
	s, up, _ := newTestServer(t)
	body, ct := multipartImage(t, pngMagic)
	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-User-ID", "42")

	rec := do(s.Handler(), req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out.URL != "https://example.com/uploads/x.png" {
		t.Fatalf("body = %s (%v)", rec.Body.String(), err)
	}
	last, err := s.Images.Get(context.Background(), 42)
	if err != nil || last != out.URL || up.saved != 1 {
		t.Fatalf("last = %q, %v, saved = %d", last, err, up.saved)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	s, up, _ := newTestServer(t)
	body, ct := multipartImage(t, []byte("plain text"))
	req := httptest.NewRequest(http.MethodPost, "/v1/uploads", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-User-ID", "1")

	if rec := do(s.Handler(), req); rec.Code != http.StatusUnsupportedMediaType || up.saved != 0 {
		t.Fatalf("status = %d saved = %d", rec.Code, up.saved)
	}
}

func TestRequiresUserHeader(t *testing.T) {
	s, _, inp := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/inpaint", strings.NewReader(`{}`))
	req.Header.Set("X-User-ID", "abc")
	if rec := do(s.Handler(), req); rec.Code != http.StatusBadRequest || inp.uid != 0 {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestInpaintSuccess(t *testing.T) {
	s, _, inp := newTestServer(t)
	inp.res = &inpaint.Result{Image: pngMagic, Caption: "Готово ✨\nPrompt: кот"}
	req := httptest.NewRequest(http.MethodPost, "/v1/inpaint", strings.NewReader(`{"img":"a"}`))
	req.Header.Set("X-User-ID", "7")

	rec := do(s.Handler(), req)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("status = %d ct = %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	caption, err := url.QueryUnescape(rec.Header().Get("X-Caption"))
	if err != nil || caption != inp.res.Caption {
		t.Fatalf("caption = %q (%v)", caption, err)
	}
	if inp.uid != 7 {
		t.Fatalf("uid = %d", inp.uid)
	}
}

func TestInpaintStageStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		stage  string
	}{
		{&inpaint.ValidationError{Missing: []string{"img"}}, http.StatusBadRequest, "validate"},
		{&inpaint.MaskBuildError{Err: errors.New("x")}, http.StatusBadRequest, "mask"},
		{&inpaint.SourceFetchError{Err: errors.New("x")}, http.StatusBadGateway, "source"},
		{&inpaint.BackendError{Status: 500, Body: "oops"}, http.StatusBadGateway, "edit"},
	}
	for _, c := range cases {
		s, _, inp := newTestServer(t)
		inp.err = c.err
		req := httptest.NewRequest(http.MethodPost, "/v1/inpaint", strings.NewReader(`{}`))
		req.Header.Set("X-User-ID", "1")

		rec := do(s.Handler(), req)
		var out struct {
			Stage string `json:"stage"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%v: body %s", c.err, rec.Body.String())
		}
		if rec.Code != c.status || out.Stage != c.stage || out.Error == "" {
			t.Errorf("%v: status=%d stage=%q error=%q", c.err, rec.Code, out.Stage, out.Error)
		}
	}
}

func TestInpaintBadJSON(t *testing.T) {
	s, _, inp := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/inpaint", strings.NewReader(`{`))
	req.Header.Set("X-User-ID", "1")
	if rec := do(s.Handler(), req); rec.Code != http.StatusBadRequest || inp.uid != 0 {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestWebhookRoute(t *testing.T) {
	s, _, _ := newTestServer(t)
	hit := false
	s.WebhookPath = "/webhook/abc"
	s.WebhookHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		w.WriteHeader(http.StatusOK)
	})
	rec := do(s.Handler(), httptest.NewRequest(http.MethodPost, "/webhook/abc", strings.NewReader("{}")))
	if rec.Code != http.StatusOK || !hit {
		t.Fatalf("status = %d hit = %v", rec.Code, hit)
	}
}
