package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/session"
)

// ConferenceHandler consumes the control plane's conference lifecycle push
// events and keeps each call's conference identifier current.
type ConferenceHandler struct {
	Registry session.Registry
	Logger   *logrus.Logger
}

func (h *ConferenceHandler) Status(c *gin.Context) {
	event := c.PostForm("StatusCallbackEvent")
	conferenceSID := c.PostForm("ConferenceSid")
	callSID := c.PostForm("CallSid")

	h.Logger.WithFields(logrus.Fields{
		"event":          event,
		"conference_sid": conferenceSID,
		"call_sid":       callSID,
	}).Debug("conference event")

	// join events carry both identifiers; that's when the conference
	// identity resolves for the call
	if callSID != "" && conferenceSID != "" {
		h.Registry.Upsert(callSID, session.Fields{
			ConferenceSID: session.Str(conferenceSID),
		})
	}

	c.Status(http.StatusNoContent)
}
