// Package stability — клиент Stability AI v2beta stable-image/edit/inpaint.
package stability

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"inpaint-bot/api/internal/inpaint"
	"inpaint-bot/api/internal/util"
)

const DefaultURL = "https://api.stability.ai/v2beta/stable-image/edit/inpaint"

type Client struct {
	APIKey string
	URL    string
	httpc  *http.Client
}

func New(httpc *http.Client, url, key string) *Client {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	return &Client{APIKey: strings.TrimSpace(key), URL: strings.TrimSpace(url), httpc: httpc}
}

// Edit отправляет изображение и маску, ответ — байты PNG.
// Не-200 или не-картинка в ответе — *inpaint.BackendError.
func (c *Client) Edit(ctx context.Context, r inpaint.EditRequest) ([]byte, error) {
	body, contentType, err := buildForm(r)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "image/*")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &inpaint.BackendError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, util.SnippetLimit))
		return nil, &inpaint.BackendError{
			Status:      resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        util.Truncate(strings.TrimSpace(string(x)), util.SnippetLimit),
		}
	}
	ct := resp.Header.Get("Content-Type")
	if mt, _, _ := mime.ParseMediaType(ct); !strings.HasPrefix(mt, "image/") {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, util.SnippetLimit))
		if ct == "" {
			ct = "none"
		}
		return nil, &inpaint.BackendError{
			Status:      resp.StatusCode,
			ContentType: ct,
			Body:        util.Truncate(strings.TrimSpace(string(x)), util.SnippetLimit),
		}
	}
	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &inpaint.BackendError{Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return img, nil
}

func buildForm(r inpaint.EditRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	imgMime := util.SniffMimeHTTP(r.Image)
	if err := writeFile(w, "image", "image"+util.ExtForMime(imgMime), imgMime, r.Image); err != nil {
		return nil, "", err
	}
	if err := writeFile(w, "mask", "mask.png", "image/png", r.Mask); err != nil {
		return nil, "", err
	}
	if p := strings.TrimSpace(r.Prompt); p != "" {
		if err := w.WriteField("prompt", p); err != nil {
			return nil, "", err
		}
	}
	if err := w.WriteField("output_format", "png"); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, field, filename, contentType string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}
