package libre

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTranslate(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /translate", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		if body["q"] != "кот" || body["source"] != "ru" || body["target"] != "en" || body["format"] != "text" {
			t.Errorf("body = %v", body)
		}
		if body["api_key"] != "secret" {
			t.Errorf("api_key = %v", body["api_key"])
		}
		_, _ = w.Write([]byte(`{"translatedText":"cat"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	got, err := New(srv.Client(), srv.URL+"/", "secret").Translate(context.Background(), "кот", "ru", "en")
	if err != nil || got != "cat" {
		t.Fatalf("Translate = %q, %v", got, err)
	}
}

func TestTranslateOmitsEmptyKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["api_key"]; ok {
			t.Errorf("api_key must be omitted, body = %v", body)
		}
		_, _ = w.Write([]byte(`{"translatedText":""}`))
	}))
	t.Cleanup(srv.Close)

	got, err := New(srv.Client(), srv.URL, "").Translate(context.Background(), "кот", "ru", "en")
	if err != nil || got != "" {
		t.Fatalf("Translate = %q, %v", got, err)
	}
}

func TestTranslateNon200(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	if _, err := New(srv.Client(), srv.URL, "").Translate(context.Background(), "кот", "ru", "en"); err == nil {
		t.Fatal("expected error on 429")
	}
}
