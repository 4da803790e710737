package deepl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTranslate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "DeepL-Auth-Key k1" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
			return
		}
		if r.PostForm.Get("text") != "кот" || r.PostForm.Get("source_lang") != "RU" || r.PostForm.Get("target_lang") != "EN" {
			t.Errorf("form = %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"translations":[{"detected_source_language":"RU","text":"cat"}]}`))
	}))
	t.Cleanup(srv.Close)

	p := New(srv.Client(), srv.URL, "k1")
	if !p.Configured() {
		t.Fatal("provider with key must be configured")
	}
	got, err := p.Translate(context.Background(), "кот", "ru", "en")
	if err != nil || got != "cat" {
		t.Fatalf("Translate = %q, %v", got, err)
	}
}

func TestTranslateErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"forbidden", http.StatusForbidden, `{"message":"Wrong key"}`},
		{"malformed", http.StatusOK, `not json`},
		{"empty list", http.StatusOK, `{"translations":[]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			if _, err := New(srv.Client(), srv.URL, "k").Translate(context.Background(), "кот", "ru", "en"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNotConfiguredWithoutKey(t *testing.T) {
	t.Parallel()

	if New(http.DefaultClient, "https://api-free.deepl.com/v2/translate", " ").Configured() {
		t.Fatal("provider without key must not be configured")
	}
}
