package orchestrator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/logger"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/providers/stt"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/session"
)

// Agent is the turn-based conversational backend. Ask blocks up to the
// reply timeout; ok=false means the wait expired without an answer.
type Agent interface {
	Ask(ctx context.Context, meta session.Meta, text string) (reply string, ok bool, err error)
	EndCall(callSID string)
}

// Announcer plays a reply back into the call's conference.
type Announcer interface {
	Announce(ctx context.Context, callSID, text string) error
}

// Service builds one Pipeline per live call.
type Service struct {
	Recognizer stt.Recognizer
	Params     stt.Params
	Agent      Agent
	Announcer  Announcer
	Registry   session.Registry

	WakePhrases []string
	Throttle    time.Duration
	Debounce    time.Duration

	Logger *logrus.Logger
}

// Pipeline owns one call's audio fan-in: relay -> recognizer -> classifier
// -> debouncer -> agent -> announcer. All inbound events for the call are
// handled on the media-stream reader goroutine, so internal state never
// races across calls.
type Pipeline struct {
	callSID string
	svc     *Service
	log     *logrus.Entry

	relay      *Relay
	classifier *Classifier
	debouncer  *Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	stream stt.Stream
	opened chan struct{} // closed once the recognizer connect attempt finished
}

func (s *Service) NewPipeline(callSID string) *Pipeline {
	log := logger.ForCall(s.Logger, callSID)

	p := &Pipeline{
		callSID: callSID,
		svc:     s,
		log:     log,
		relay:   NewRelay(log),
		opened:  make(chan struct{}),
	}
	p.debouncer = NewDebouncer(callSID, s.Throttle, s.Debounce, log, p.onWake)
	p.classifier = NewClassifier(s.WakePhrases, log, p.debouncer.OnCandidate)
	return p
}

// Start connects the recognizer in the background; frames handed to
// HandleFrame meanwhile are buffered by the relay.
func (p *Pipeline) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	go func() {
		defer close(p.opened)

		stream, err := p.svc.Recognizer.Start(p.ctx, p.svc.Params)
		if err != nil {
			p.log.WithError(err).Warn("recognizer connect failed, call continues without transcription")
			p.relay.ConnClosed()
			return
		}
		if p.ctx.Err() != nil {
			_ = stream.Close()
			return
		}
		p.stream = stream
		p.relay.ConnReady(stream)

		go p.consume(stream)
	}()
}

func (p *Pipeline) consume(stream stt.Stream) {
	for ev := range stream.Events() {
		p.classifier.OnEvent(ev)
	}
	// recognizer link died: drop the queue, keep the call alive
	p.relay.ConnClosed()
}

// HandleFrame is called once per inbound media frame, in arrival order.
func (p *Pipeline) HandleFrame(frame []byte) {
	p.relay.Send(frame)
}

func (p *Pipeline) onWake(trig WakeTrigger) {
	// the agent wait is bounded but long; never block transcript handling
	go func() {
		meta, ok := p.svc.Registry.Get(trig.CallSID)
		if !ok {
			p.log.Warn("wake fired for unknown call, dropped")
			return
		}

		reply, answered, err := p.svc.Agent.Ask(p.ctx, meta, trig.Text)
		if err != nil {
			p.log.WithError(err).Warn("agent turn failed")
			return
		}
		if !answered {
			p.log.Info("agent gave no reply within the wait window")
			return
		}
		if err := p.svc.Announcer.Announce(p.ctx, trig.CallSID, reply); err != nil {
			p.log.WithError(err).Error("reply playback failed")
		}
	}()
}

// Stop tears the call down: timers cancelled, connections closed
// synchronously, registry entry removed by the caller.
func (p *Pipeline) Stop() {
	p.cancel()
	p.debouncer.Close()

	<-p.opened // don't race a connect still in flight
	if p.stream != nil {
		_ = p.stream.Close()
	}
	p.svc.Agent.EndCall(p.callSID)
	p.log.Info("pipeline stopped")
}
