package orchestrator

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/providers/stt"
)

// Classifier splits the recognizer's event stream: every transcript goes to
// the logging sink, and wake-phrase matches go on to the debouncer tagged
// with their committed/partial status.
type Classifier struct {
	phrases   []string // lowercased
	sink      *logrus.Entry
	candidate func(text string, committed bool)
}

func NewClassifier(phrases []string, sink *logrus.Entry, candidate func(string, bool)) *Classifier {
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}
	return &Classifier{phrases: lowered, sink: sink, candidate: candidate}
}

func (c *Classifier) OnEvent(ev stt.Event) {
	c.sink.WithFields(logrus.Fields{
		"committed": ev.Committed,
		"text":      ev.Text,
	}).Info("transcript")

	if c.Matches(ev.Text) {
		c.candidate(ev.Text, ev.Committed)
	}
}

// Matches is a case-insensitive substring check against the phrase list.
func (c *Classifier) Matches(text string) bool {
	lowered := strings.ToLower(text)
	for _, p := range c.phrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}
