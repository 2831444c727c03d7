package stt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Realtime speaks the hosted realtime-transcription websocket protocol:
// base64 audio chunks up, JSON transcript events down.
type Realtime struct {
	URL    string
	APIKey string
	Logger *logrus.Logger
}

func NewRealtime(wsURL, apiKey string, l *logrus.Logger) *Realtime {
	return &Realtime{URL: wsURL, APIKey: apiKey, Logger: l}
}

type realtimeStream struct {
	conn   *websocket.Conn
	mu     sync.Mutex // serializes writes
	events chan Event
	done   chan struct{}
}

type realtimeClientMsg struct {
	AudioChunk string `json:"audio_chunk"`
}

type realtimeServerMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (r *Realtime) Start(ctx context.Context, p Params) (Stream, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("model_id", p.Model)
	q.Set("language", p.Language)
	q.Set("encoding", p.Encoding)
	q.Set("sample_rate", strconv.Itoa(p.SampleRateHz))
	q.Set("commit_strategy", p.CommitStrategy)
	u.RawQuery = q.Encode()

	hdr := http.Header{}
	if r.APIKey != "" {
		hdr.Set("xi-api-key", r.APIKey)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), hdr)
	if err != nil {
		return nil, err
	}

	s := &realtimeStream{
		conn:   conn,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	go s.readLoop(r.Logger)
	return s, nil
}

func (s *realtimeStream) readLoop(l *logrus.Logger) {
	defer close(s.events)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if l != nil && !websocket.IsCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				select {
				case <-s.done:
				default:
					l.WithError(err).Warn("recognizer stream read failed")
				}
			}
			return
		}

		var msg realtimeServerMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			if l != nil {
				l.WithError(err).Debug("recognizer sent unparseable event, dropped")
			}
			continue
		}

		switch msg.Type {
		case "partial_transcript":
			s.events <- Event{Text: msg.Text, Committed: false}
		case "committed_transcript", "final_transcript":
			s.events <- Event{Text: msg.Text, Committed: true}
		}
		// other event kinds (session metadata, keepalives) are ignored
	}
}

func (s *realtimeStream) SendAudio(frame []byte) error {
	payload, _ := json.Marshal(realtimeClientMsg{
		AudioChunk: base64.StdEncoding.EncodeToString(frame),
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *realtimeStream) Events() <-chan Event { return s.events }

func (s *realtimeStream) Close() error {
	select {
	case <-s.done:
		return nil
	default:
		close(s.done)
	}
	s.mu.Lock()
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.mu.Unlock()
	return s.conn.Close()
}
