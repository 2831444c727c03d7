package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/session"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/utils"
)

// CallHandler answers the provider's inbound-call webhook: it registers the
// call and returns markup that forks the call audio to our media stream and
// drops the caller into the shared conference.
type CallHandler struct {
	Registry       session.Registry
	ConferenceName string
	PublicBaseURL  string
	Logger         *logrus.Logger
}

func (h *CallHandler) Inbound(c *gin.Context) {
	callSID := c.PostForm("CallSid")
	from := c.PostForm("From")
	if callSID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "CallHandler.Inbound", "missing CallSid", nil))
		return
	}

	h.Registry.Upsert(callSID, session.Fields{
		Caller:         session.Str(from),
		ConferenceName: session.Str(h.ConferenceName),
	})
	h.Logger.WithFields(logrus.Fields{
		"call_sid": callSID,
		"from":     from,
	}).Info("inbound call")

	wsBase := strings.Replace(h.PublicBaseURL, "http", "ws", 1)
	twiml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Start>
    <Stream url="%s/media"/>
  </Start>
  <Dial>
    <Conference statusCallback="%s/conference/status" statusCallbackEvent="start end join leave">%s</Conference>
  </Dial>
</Response>`, wsBase, h.PublicBaseURL, h.ConferenceName)

	c.Data(http.StatusOK, "text/xml", []byte(twiml))
}
