package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultWakePhrase is used when WAKE_PHRASES is not set.
const DefaultWakePhrase = "hey assistant"

type Config struct {
	Port           string
	PublicBaseURL  string // externally reachable base URL; empty disables playback announcements
	ConferenceName string

	WakePhrases  []string
	WakeThrottle time.Duration
	WakeDebounce time.Duration

	Telephony TelephonyConfig
	STT       STTConfig
	TTS       TTSConfig
	Agent     AgentConfig

	BlobTTL   time.Duration
	RedisAddr string // optional; empty keeps the in-memory blob store
	GCSBucket string // optional; empty disables reply archival
}

type TelephonyConfig struct {
	AccountSID string
	AuthToken  string
	BaseURL    string
}

type STTConfig struct {
	Provider       string // "realtime" or "google"
	URL            string // realtime websocket endpoint
	APIKey         string
	Model          string
	Language       string
	Encoding       string
	SampleRateHz   int
	CommitStrategy string // "vad" or "manual"
}

type TTSConfig struct {
	BaseURL string
	APIKey  string
	VoiceID string
}

type AgentConfig struct {
	URL          string
	APIKey       string
	AgentID      string
	ReplyTimeout time.Duration
}

func Load() Config {
	return Config{
		Port:           getenv("PORT", "8080"),
		PublicBaseURL:  strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		ConferenceName: getenv("CONFERENCE_NAME", "AssistantRoom"),

		WakePhrases:  phrases(os.Getenv("WAKE_PHRASES")),
		WakeThrottle: duration("WAKE_THROTTLE", 8*time.Second),
		WakeDebounce: duration("WAKE_DEBOUNCE", 2500*time.Millisecond),

		Telephony: TelephonyConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			BaseURL:    getenv("TWILIO_API_BASE_URL", "https://api.twilio.com/2010-04-01"),
		},
		STT: STTConfig{
			Provider:       getenv("STT_PROVIDER", "realtime"),
			URL:            os.Getenv("STT_WS_URL"),
			APIKey:         os.Getenv("STT_API_KEY"),
			Model:          getenv("STT_MODEL", "scribe_v1"),
			Language:       getenv("STT_LANGUAGE", "en"),
			Encoding:       getenv("STT_ENCODING", "ulaw_8000"),
			SampleRateHz:   intenv("STT_SAMPLE_RATE", 8000),
			CommitStrategy: getenv("STT_COMMIT_STRATEGY", "vad"),
		},
		TTS: TTSConfig{
			BaseURL: getenv("TTS_BASE_URL", "https://api.elevenlabs.io"),
			APIKey:  os.Getenv("ELEVENLABS_API_KEY"),
			VoiceID: getenv("TTS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		},
		Agent: AgentConfig{
			URL:          os.Getenv("AGENT_WS_URL"),
			APIKey:       os.Getenv("AGENT_API_KEY"),
			AgentID:      os.Getenv("AGENT_ID"),
			ReplyTimeout: duration("AGENT_REPLY_TIMEOUT", 15*time.Second),
		},

		BlobTTL:   duration("AUDIO_BLOB_TTL", 5*time.Minute),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		GCSBucket: os.Getenv("GCS_BUCKET"),
	}
}

func phrases(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = []string{DefaultWakePhrase}
	}
	return out
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intenv(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && v > 0 {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil && v > 0 {
		return v
	}
	return def
}
