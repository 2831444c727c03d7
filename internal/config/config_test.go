package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "WAKE_PHRASES", "WAKE_THROTTLE", "WAKE_DEBOUNCE", "AUDIO_BLOB_TTL", "AGENT_REPLY_TIMEOUT"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("port: got %q", cfg.Port)
	}
	if cfg.WakeThrottle != 8*time.Second {
		t.Fatalf("throttle: got %v", cfg.WakeThrottle)
	}
	if cfg.WakeDebounce != 2500*time.Millisecond {
		t.Fatalf("debounce: got %v", cfg.WakeDebounce)
	}
	if cfg.BlobTTL != 5*time.Minute {
		t.Fatalf("blob ttl: got %v", cfg.BlobTTL)
	}
	if len(cfg.WakePhrases) != 1 || cfg.WakePhrases[0] != DefaultWakePhrase {
		t.Fatalf("wake phrases: got %v", cfg.WakePhrases)
	}
	if cfg.Agent.ReplyTimeout != 15*time.Second {
		t.Fatalf("reply timeout: got %v", cfg.Agent.ReplyTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WAKE_PHRASES", "hey assistant, ok computer ,")
	t.Setenv("WAKE_THROTTLE", "100ms")
	t.Setenv("STT_SAMPLE_RATE", "16000")
	t.Setenv("PUBLIC_BASE_URL", "https://example.com/")

	cfg := Load()

	if len(cfg.WakePhrases) != 2 || cfg.WakePhrases[1] != "ok computer" {
		t.Fatalf("wake phrases: got %v", cfg.WakePhrases)
	}
	if cfg.WakeThrottle != 100*time.Millisecond {
		t.Fatalf("throttle: got %v", cfg.WakeThrottle)
	}
	if cfg.STT.SampleRateHz != 16000 {
		t.Fatalf("sample rate: got %d", cfg.STT.SampleRateHz)
	}
	if cfg.PublicBaseURL != "https://example.com" {
		t.Fatalf("base url not trimmed: %q", cfg.PublicBaseURL)
	}
}
