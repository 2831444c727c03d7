package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/orchestrator"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/session"
)

// MediaWSHandler terminates the provider's per-call media stream websocket
// and owns the call pipeline's lifecycle: created on the start event,
// stopped (connections closed) when the stream ends.
type MediaWSHandler struct {
	Pipelines *orchestrator.Service
	Registry  session.Registry
	Logger    *logrus.Logger

	upgrader websocket.Upgrader
}

func NewMediaWSHandler(svc *orchestrator.Service, reg session.Registry, l *logrus.Logger) *MediaWSHandler {
	return &MediaWSHandler{
		Pipelines: svc,
		Registry:  reg,
		Logger:    l,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // provider connects from its own infra
		},
	}
}

type mediaMsg struct {
	Event string `json:"event"`
	Start struct {
		CallSID   string `json:"callSid"`
		StreamSID string `json:"streamSid"`
	} `json:"start"`
	Media struct {
		Payload string `json:"payload"` // base64 narrowband audio
	} `json:"media"`
	Stop struct {
		CallSID string `json:"callSid"`
	} `json:"stop"`
}

func (h *MediaWSHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote the response in most cases
		return
	}
	defer conn.Close()

	var (
		callSID  string
		pipeline *orchestrator.Pipeline
	)
	defer func() {
		if pipeline != nil {
			pipeline.Stop()
			h.Registry.Delete(callSID)
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.Logger.WithError(err).WithField("call_sid", callSID).Debug("media stream closed")
			}
			return
		}

		var msg mediaMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			h.Logger.WithError(err).Debug("unparseable media message, dropped")
			continue
		}

		switch msg.Event {
		case "start":
			if pipeline != nil {
				continue // duplicate start
			}
			callSID = msg.Start.CallSID
			if callSID == "" {
				h.Logger.Warn("media start without callSid, closing stream")
				return
			}
			h.Registry.Upsert(callSID, session.Fields{})
			pipeline = h.Pipelines.NewPipeline(callSID)
			pipeline.Start(c.Request.Context())
			h.Logger.WithFields(logrus.Fields{
				"call_sid":   callSID,
				"stream_sid": msg.Start.StreamSID,
			}).Info("media stream started")

		case "media":
			if pipeline == nil {
				continue
			}
			frame, err := base64.StdEncoding.DecodeString(msg.Media.Payload)
			if err != nil {
				h.Logger.WithError(err).Debug("bad media payload, dropped")
				continue
			}
			pipeline.HandleFrame(frame)

		case "stop":
			return
		}
	}
}
