package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestElevenLabsSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/voice-1" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "k" {
			t.Errorf("missing api key header")
		}
		var req synthesizeReq
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Text != "hello there" {
			t.Errorf("text: %q", req.Text)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("MP3DATA"))
	}))
	defer srv.Close()

	e := NewElevenLabs(srv.URL, "k", "voice-1")
	audio, ct, err := e.Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if string(audio) != "MP3DATA" || ct != "audio/mpeg" {
		t.Fatalf("got %q %q", audio, ct)
	}
}

func TestElevenLabsSynthesizeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewElevenLabs(srv.URL, "k", "voice-1")
	if _, _, err := e.Synthesize(context.Background(), "hi"); err == nil {
		t.Fatal("expected error on non-200")
	}
}
