package orchestrator

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// WakeTrigger is the debouncer's output: one genuine wake for a call.
type WakeTrigger struct {
	CallSID string
	Text    string
}

// Debouncer decides when a stream of wake-phrase candidates becomes a real
// wake. Committed transcripts fire immediately (unless throttled); partials
// arm a quiet-period timer that keeps restarting while the speaker talks.
// A throttle window then suppresses re-triggers of a sustained utterance.
type Debouncer struct {
	callSID  string
	throttle time.Duration
	debounce time.Duration
	fire     func(WakeTrigger)
	log      *logrus.Entry

	mu          sync.Mutex
	lastFire    time.Time
	timer       *time.Timer
	timerGen    uint64 // invalidates in-flight timer callbacks
	pendingText string
}

func NewDebouncer(callSID string, throttle, debounce time.Duration, log *logrus.Entry, fire func(WakeTrigger)) *Debouncer {
	return &Debouncer{
		callSID:  callSID,
		throttle: throttle,
		debounce: debounce,
		fire:     fire,
		log:      log,
	}
}

// OnCandidate feeds one wake-matching transcript into the state machine.
// Called from the call's event goroutine only.
func (d *Debouncer) OnCandidate(text string, committed bool) {
	d.mu.Lock()

	now := time.Now()
	if committed {
		// finalized text always wins over an in-flight partial
		d.cancelTimerLocked()
		if !d.windowElapsedLocked(now) {
			d.mu.Unlock()
			d.log.Debug("wake suppressed, throttle window active")
			return
		}
		trig := d.fireLocked(now, text)
		d.mu.Unlock()
		d.fire(trig)
		return
	}

	if !d.windowElapsedLocked(now) {
		d.mu.Unlock()
		return
	}

	// speaker may still be talking: (re)start the quiet-period timer
	d.cancelTimerLocked()
	d.pendingText = text
	gen := d.timerGen
	d.timer = time.AfterFunc(d.debounce, func() { d.onTimer(gen) })
	d.mu.Unlock()
}

func (d *Debouncer) onTimer(gen uint64) {
	d.mu.Lock()

	if gen != d.timerGen {
		// cancelled or restarted while this callback was in flight
		d.mu.Unlock()
		return
	}
	d.timer = nil

	now := time.Now()
	if !d.windowElapsedLocked(now) {
		// re-throttled by an intervening fire: drop silently
		d.mu.Unlock()
		return
	}
	trig := d.fireLocked(now, d.pendingText)
	d.mu.Unlock()
	d.fire(trig)
}

// Close cancels any pending timer; safe against a concurrently firing one.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelTimerLocked()
}

func (d *Debouncer) windowElapsedLocked(now time.Time) bool {
	return d.lastFire.IsZero() || now.Sub(d.lastFire) >= d.throttle
}

func (d *Debouncer) fireLocked(now time.Time, text string) WakeTrigger {
	d.lastFire = now
	d.log.WithField("text", text).Info("wake fired")
	return WakeTrigger{CallSID: d.callSID, Text: text}
}

func (d *Debouncer) cancelTimerLocked() {
	d.timerGen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
