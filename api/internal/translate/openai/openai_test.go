package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTranslate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk" {
			t.Errorf("Authorization = %q", got)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		if body.Model != "gpt-4o-mini" || len(body.Messages) != 2 || body.Messages[1].Content != "кот" {
			t.Errorf("body = %+v", body)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"cat"}}]}`))
	}))
	t.Cleanup(srv.Close)

	p := New(srv.Client(), "sk", "gpt-4o-mini")
	p.url = srv.URL
	got, err := p.Translate(context.Background(), "кот", "ru", "en")
	if err != nil || got != "cat" {
		t.Fatalf("Translate = %q, %v", got, err)
	}
}

func TestTranslateEmptyChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	t.Cleanup(srv.Close)

	p := New(srv.Client(), "sk", "gpt-4o-mini")
	p.url = srv.URL
	if _, err := p.Translate(context.Background(), "кот", "ru", "en"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
