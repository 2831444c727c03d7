package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/orchestrator"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/providers/stt"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/session"
)

type captureStream struct {
	mu     sync.Mutex
	frames [][]byte
	events chan stt.Event
}

func (c *captureStream) SendAudio(frame []byte) error {
	buf := make([]byte, len(frame))
	copy(buf, frame)
	c.mu.Lock()
	c.frames = append(c.frames, buf)
	c.mu.Unlock()
	return nil
}

func (c *captureStream) Events() <-chan stt.Event { return c.events }
func (c *captureStream) Close() error             { return nil }

type captureRecognizer struct{ stream *captureStream }

func (c *captureRecognizer) Start(context.Context, stt.Params) (stt.Stream, error) {
	return c.stream, nil
}

type noopAgent struct{}

func (noopAgent) Ask(context.Context, session.Meta, string) (string, bool, error) {
	return "", false, nil
}
func (noopAgent) EndCall(string) {}

type noopAnnouncer struct{}

func (noopAnnouncer) Announce(context.Context, string, string) error { return nil }

func TestMediaStreamLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := &captureRecognizer{stream: &captureStream{events: make(chan stt.Event)}}
	reg := session.NewRegistry()
	svc := &orchestrator.Service{
		Recognizer:  rec,
		Agent:       noopAgent{},
		Announcer:   noopAnnouncer{},
		Registry:    reg,
		WakePhrases: []string{"hey assistant"},
		Throttle:    time.Second,
		Debounce:    time.Second,
		Logger:      discardLogger(),
	}

	r := gin.New()
	r.GET("/media", NewMediaWSHandler(svc, reg, discardLogger()).Stream)
	ts := httptest.NewServer(r)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/media", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send := func(s string) {
		t.Helper()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(s)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	send(`{"event":"start","start":{"callSid":"CA1","streamSid":"MZ1"}}`)
	send(`not even json`) // malformed control payloads are dropped, stream continues
	send(`{"event":"media","media":{"payload":"UUpG"}}`) // base64 "QJF"

	// frame must reach the recognizer stream (directly or via flush)
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec.stream.mu.Lock()
		n := len(rec.stream.frames)
		rec.stream.mu.Unlock()
		if n == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	rec.stream.mu.Lock()
	if len(rec.stream.frames) != 1 || string(rec.stream.frames[0]) != "QJF" {
		t.Fatalf("frames: %q", rec.stream.frames)
	}
	rec.stream.mu.Unlock()

	if _, ok := reg.Get("CA1"); !ok {
		t.Fatal("session not created on start")
	}

	send(`{"event":"stop","stop":{"callSid":"CA1"}}`)

	deadline = time.Now().Add(2 * time.Second)
	for {
		if _, ok := reg.Get("CA1"); !ok {
			return // torn down
		}
		if time.Now().After(deadline) {
			t.Fatal("session still registered after stop")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
