package orchestrator

import (
	"errors"
	"sync"
	"testing"

	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/providers/stt"
)

type fakeStream struct {
	mu     sync.Mutex
	sent   [][]byte
	fail   bool
	events chan stt.Event
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan stt.Event)}
}

func (f *fakeStream) SendAudio(frame []byte) error {
	if f.fail {
		return errors.New("link down")
	}
	buf := make([]byte, len(frame))
	copy(buf, frame)
	f.mu.Lock()
	f.sent = append(f.sent, buf)
	f.mu.Unlock()
	return nil
}

func (f *fakeStream) frames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}

func (f *fakeStream) Events() <-chan stt.Event { return f.events }
func (f *fakeStream) Close() error             { return nil }

func TestRelayBuffersUntilReadyThenPreservesOrder(t *testing.T) {
	r := NewRelay(testEntry())

	r.Send([]byte{1})
	r.Send([]byte{2})

	s := newFakeStream()
	r.ConnReady(s)
	r.Send([]byte{3})

	frames := s.frames()
	if len(frames) != 3 {
		t.Fatalf("forwarded %d frames, want 3", len(frames))
	}
	for i, frame := range frames {
		if frame[0] != byte(i+1) {
			t.Fatalf("frame %d out of order: %v", i, frames)
		}
	}
}

func TestRelayBufferedFramesAreCopies(t *testing.T) {
	r := NewRelay(testEntry())

	frame := []byte{42}
	r.Send(frame)
	frame[0] = 99 // caller reuses its buffer

	s := newFakeStream()
	r.ConnReady(s)

	if s.frames()[0][0] != 42 {
		t.Fatalf("buffered frame aliased the caller's buffer: %v", s.frames())
	}
}

func TestRelayDiscardsAfterClose(t *testing.T) {
	r := NewRelay(testEntry())

	s := newFakeStream()
	r.ConnReady(s)
	r.ConnClosed()

	r.Send([]byte{9})
	if len(s.frames()) != 0 {
		t.Fatalf("frame forwarded after close: %v", s.frames())
	}
	if r.Buffering() {
		t.Fatal("relay rebuffered after close")
	}
}

func TestRelaySendFailureIsNotFatal(t *testing.T) {
	r := NewRelay(testEntry())

	s := newFakeStream()
	s.fail = true
	r.ConnReady(s)

	// must not panic, frame loss is accepted degradation
	r.Send([]byte{1})
	r.Send([]byte{2})
}
