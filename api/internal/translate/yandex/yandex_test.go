package yandex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestProvider(t *testing.T, translate http.HandlerFunc) (*Provider, *atomic.Int32) {
	t.Helper()

	var iamCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /iam/v1/tokens", func(w http.ResponseWriter, r *http.Request) {
		n := iamCalls.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["yandexPassportOauthToken"] != "oauth" {
			t.Errorf("oauth body = %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"iamToken": "iam-" + string(rune('0'+n))})
	})
	mux.HandleFunc("POST /translate/v2/translate", translate)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := New(srv.Client(), "oauth", "folder-1")
	p.url = srv.URL + "/translate/v2/translate"
	p.iamc.url = srv.URL + "/iam/v1/tokens"
	return p, &iamCalls
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	p, iamCalls := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer iam-1" {
			t.Errorf("Authorization = %q", got)
		}
		var body request
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.FolderID != "folder-1" || len(body.Texts) != 1 || body.Texts[0] != "кот" ||
			body.SourceLanguageCode != "ru" || body.TargetLanguageCode != "en" {
			t.Errorf("body = %+v", body)
		}
		_, _ = w.Write([]byte(`{"translations":[{"text":"cat"}]}`))
	})

	for i := 0; i < 2; i++ {
		got, err := p.Translate(context.Background(), "кот", "ru", "en")
		if err != nil || got != "cat" {
			t.Fatalf("Translate = %q, %v", got, err)
		}
	}
	if n := iamCalls.Load(); n != 1 {
		t.Errorf("IAM token fetched %d times, want cached once", n)
	}
}

func TestTranslateRefreshesTokenOn401(t *testing.T) {
	t.Parallel()

	p, iamCalls := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer iam-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"translations":[{"text":"dog"}]}`))
	})

	got, err := p.Translate(context.Background(), "собака", "ru", "en")
	if err != nil || got != "dog" {
		t.Fatalf("Translate = %q, %v", got, err)
	}
	if n := iamCalls.Load(); n != 2 {
		t.Errorf("IAM calls = %d, want 2", n)
	}
}

func TestConfigured(t *testing.T) {
	t.Parallel()

	if New(http.DefaultClient, "", "folder").Configured() {
		t.Error("no oauth token: must not be configured")
	}
	if New(http.DefaultClient, "oauth", "").Configured() {
		t.Error("no folder: must not be configured")
	}
	if _, err := New(http.DefaultClient, "", "").Translate(context.Background(), "кот", "ru", "en"); err == nil {
		t.Error("unconfigured provider must fail")
	}
}
