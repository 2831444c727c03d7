package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/agent"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/announce"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/api/handlers"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/api/middleware"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/api/routes"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/config"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/logger"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/orchestrator"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/providers/stt"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/providers/tts"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/session"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/storage"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/telephony"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	l := logger.New()
	cfg := config.Load()

	registry := session.NewRegistry()

	var telAPI telephony.API
	tel := telephony.NewClient(cfg.Telephony.BaseURL, cfg.Telephony.AccountSID, cfg.Telephony.AuthToken)
	if tel.Configured() {
		telAPI = tel
	} else {
		l.Warn("telephony credentials absent, playback announcements disabled")
	}

	var recognizer stt.Recognizer
	switch cfg.STT.Provider {
	case "google":
		gs, err := stt.NewGoogleSpeech(ctx, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), l)
		if err != nil {
			log.Fatalf("cloud speech init error: %v", err)
		}
		defer gs.Close()
		recognizer = gs
	default:
		recognizer = stt.NewRealtime(cfg.STT.URL, cfg.STT.APIKey, l)
	}

	var blobs announce.BlobStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		blobs = announce.NewRedisStore(rdb)
	} else {
		blobs = announce.NewMemoryStore()
	}

	var uploader storage.Uploader
	if cfg.GCSBucket != "" {
		up, err := storage.NewGCSUploader(ctx, cfg.GCSBucket, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		if err != nil {
			log.Fatalf("gcs init error: %v", err)
		}
		defer up.Close()
		uploader = up
	}

	announcer := &announce.Announcer{
		Registry:  registry,
		Telephony: telAPI,
		TTS:       tts.NewElevenLabs(cfg.TTS.BaseURL, cfg.TTS.APIKey, cfg.TTS.VoiceID),
		Blobs:     blobs,
		Uploader:  uploader,
		BaseURL:   cfg.PublicBaseURL,
		TTL:       cfg.BlobTTL,
		Logger:    l,
	}

	coordinator := agent.NewCoordinator(cfg.Agent, l, func(callSID, reply string) {
		// unsolicited agent replies share the playback path
		if err := announcer.Announce(context.Background(), callSID, reply); err != nil {
			logger.ForCall(l, callSID).WithError(err).Error("async reply playback failed")
		}
	})

	svc := &orchestrator.Service{
		Recognizer: recognizer,
		Params: stt.Params{
			Model:          cfg.STT.Model,
			Language:       cfg.STT.Language,
			Encoding:       cfg.STT.Encoding,
			SampleRateHz:   cfg.STT.SampleRateHz,
			CommitStrategy: cfg.STT.CommitStrategy,
		},
		Agent:       coordinator,
		Announcer:   announcer,
		Registry:    registry,
		WakePhrases: cfg.WakePhrases,
		Throttle:    cfg.WakeThrottle,
		Debounce:    cfg.WakeDebounce,
		Logger:      l,
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(l), gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Call: &handlers.CallHandler{
			Registry:       registry,
			ConferenceName: cfg.ConferenceName,
			PublicBaseURL:  cfg.PublicBaseURL,
			Logger:         l,
		},
		Conference: &handlers.ConferenceHandler{Registry: registry, Logger: l},
		Media:      handlers.NewMediaWSHandler(svc, registry, l),
		Audio:      &handlers.AudioHandler{Blobs: blobs},
	})

	l.WithField("port", cfg.Port).Info("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
