package orchestrator

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/providers/stt"
)

// Relay forwards inbound audio frames to the recognition stream, buffering
// in arrival order while the stream is still being established. Frames that
// arrive while the stream is down are dropped; losing audio during a
// recognizer outage is accepted degradation, not an error.
type Relay struct {
	log *logrus.Entry

	mu      sync.Mutex
	stream  stt.Stream
	pending [][]byte
	dropped int
}

func NewRelay(log *logrus.Entry) *Relay {
	// non-nil pending marks the establishing phase; ConnClosed nils it
	return &Relay{log: log, pending: [][]byte{}}
}

func (r *Relay) Send(frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream == nil {
		if r.pending == nil {
			// stream was open and closed again: discard, don't rebuffer
			r.dropped++
			return
		}
		buf := make([]byte, len(frame))
		copy(buf, frame)
		r.pending = append(r.pending, buf)
		return
	}

	if err := r.stream.SendAudio(frame); err != nil {
		r.log.WithError(err).Warn("audio frame dropped, recognizer send failed")
	}
}

// ConnReady flushes everything buffered so far, in original order, before
// any newly arriving frame is forwarded.
func (r *Relay) ConnReady(s stt.Stream) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stream = s
	for _, frame := range r.pending {
		if err := s.SendAudio(frame); err != nil {
			r.log.WithError(err).Warn("buffered audio lost, recognizer send failed")
			break
		}
	}
	r.pending = nil
}

// ConnClosed discards any queue and stops forwarding.
func (r *Relay) ConnClosed() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stream = nil
	r.pending = nil
}

// Buffering reports whether the relay is still queueing for an unopened
// stream. Used by tests and the pipeline's teardown logging.
func (r *Relay) Buffering() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream == nil && r.pending != nil
}
