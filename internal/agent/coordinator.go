// Package agent maintains one streaming connection per call to the
// conversational agent service and correlates replies to the turns that
// asked for them.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/config"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/logger"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/session"
	"github.com/SinghCoder/elevenlabs-worldwide-hackathon-submission/internal/utils"
)

// AsyncReplyFunc receives replies the agent pushes after the synchronous
// wait for a turn has already resolved (multi-part or delayed answers).
type AsyncReplyFunc func(callSID, reply string)

type Coordinator struct {
	cfg     config.AgentConfig
	log     *logrus.Logger
	onAsync AsyncReplyFunc

	mu    sync.Mutex
	conns map[string]*conn
}

func NewCoordinator(cfg config.AgentConfig, l *logrus.Logger, onAsync AsyncReplyFunc) *Coordinator {
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = 15 * time.Second
	}
	return &Coordinator{
		cfg:     cfg,
		log:     l,
		onAsync: onAsync,
		conns:   make(map[string]*conn),
	}
}

type clientMsg struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	EventID int64  `json:"event_id,omitempty"`

	// init context, sent once right after connecting
	CallSID        string `json:"call_sid,omitempty"`
	Caller         string `json:"caller,omitempty"`
	ConferenceName string `json:"conference_name,omitempty"`
}

type serverMsg struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	EventID int64  `json:"event_id,omitempty"`
}

type turnResult struct {
	reply string
	err   error
}

type conn struct {
	callSID string
	log     *logrus.Entry
	onAsync AsyncReplyFunc

	// closed once the dial settles; ws and dialErr are immutable after
	ready   chan struct{}
	ws      *websocket.Conn
	dialErr error

	writeMu sync.Mutex

	mu      sync.Mutex
	pending chan turnResult // non-nil while a synchronous wait is outstanding
	buf     strings.Builder
	inReply bool
	closed  bool
}

// Ask sends text as a user turn and waits up to the configured timeout for
// the first assembled reply. ok=false means the wait expired; the
// connection stays open and a late reply routes to the async callback.
func (c *Coordinator) Ask(ctx context.Context, meta session.Meta, text string) (string, bool, error) {
	const op = "Coordinator.Ask"

	cn, err := c.connFor(ctx, meta)
	if err != nil {
		return "", false, utils.E(utils.CodeUnavailable, op, "agent connection failed", err)
	}

	cn.mu.Lock()
	if cn.pending != nil {
		cn.mu.Unlock()
		return "", false, utils.E(utils.CodeConflict, op, "a turn is already awaiting its reply", nil)
	}
	ch := make(chan turnResult, 1)
	cn.pending = ch
	cn.mu.Unlock()

	if err := cn.write(clientMsg{Type: "user_turn", Text: text}); err != nil {
		cn.mu.Lock()
		cn.pending = nil
		cn.mu.Unlock()
		c.drop(meta.CallSID, cn)
		return "", false, utils.E(utils.CodeUnavailable, op, "agent send failed", err)
	}

	timer := time.NewTimer(c.cfg.ReplyTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			return "", false, utils.E(utils.CodeUnavailable, op, "agent connection lost mid-turn", res.err)
		}
		return res.reply, true, nil
	case <-ctx.Done():
		cn.abandon(ch)
		return "", false, ctx.Err()
	case <-timer.C:
		cn.abandon(ch)
		return "", false, nil
	}
}

// abandon releases an expired synchronous wait. A reply that raced the
// timeout is rerouted to the async channel instead of being lost.
func (cn *conn) abandon(ch chan turnResult) {
	cn.mu.Lock()
	if cn.pending == ch {
		cn.pending = nil
	}
	cn.mu.Unlock()

	select {
	case res := <-ch:
		if res.err == nil && cn.onAsync != nil {
			go cn.onAsync(cn.callSID, res.reply)
		}
	default:
	}
}

// connFor returns the call's connection, dialing on first use. The registry
// lock is only held to install or look up the entry; the dial itself runs
// without it so a slow agent for one call cannot hold up turns or teardown
// for any other call.
func (c *Coordinator) connFor(ctx context.Context, meta session.Meta) (*conn, error) {
	c.mu.Lock()
	if cn, ok := c.conns[meta.CallSID]; ok {
		c.mu.Unlock()
		select {
		case <-cn.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if cn.dialErr != nil {
			return nil, cn.dialErr
		}
		return cn, nil
	}
	cn := &conn{
		callSID: meta.CallSID,
		log:     logger.ForCall(c.log, meta.CallSID),
		onAsync: c.onAsync,
		ready:   make(chan struct{}),
	}
	c.conns[meta.CallSID] = cn
	c.mu.Unlock()

	ws, err := c.dial(ctx, meta)

	cn.mu.Lock()
	cn.ws = ws
	cn.dialErr = err
	ended := cn.closed
	cn.mu.Unlock()
	close(cn.ready)

	if err != nil {
		c.drop(meta.CallSID, cn)
		return nil, err
	}
	if ended {
		// EndCall arrived while we were connecting
		c.drop(meta.CallSID, cn)
		return nil, errors.New("call ended while connecting to the agent")
	}

	go func() {
		cn.readLoop()
		c.drop(meta.CallSID, cn)
	}()
	return cn, nil
}

func (c *Coordinator) dial(ctx context.Context, meta session.Meta) (*websocket.Conn, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, err
	}
	if c.cfg.AgentID != "" {
		q := u.Query()
		q.Set("agent_id", c.cfg.AgentID)
		u.RawQuery = q.Encode()
	}
	hdr := http.Header{}
	if c.cfg.APIKey != "" {
		hdr.Set("xi-api-key", c.cfg.APIKey)
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), hdr)
	if err != nil {
		return nil, err
	}

	// seed per-call context before the first turn
	payload, _ := json.Marshal(clientMsg{
		Type:           "conversation_initiation_client_data",
		CallSID:        meta.CallSID,
		Caller:         meta.Caller,
		ConferenceName: meta.ConferenceName,
	})
	if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		_ = ws.Close()
		return nil, err
	}
	return ws, nil
}

func (cn *conn) write(msg clientMsg) error {
	payload, _ := json.Marshal(msg)
	cn.writeMu.Lock()
	defer cn.writeMu.Unlock()
	return cn.ws.WriteMessage(websocket.TextMessage, payload)
}

func (cn *conn) readLoop() {
	for {
		_, data, err := cn.ws.ReadMessage()
		if err != nil {
			cn.mu.Lock()
			closed := cn.closed
			pending := cn.pending
			cn.pending = nil
			cn.mu.Unlock()

			// a waiter should learn about the dead connection now, not
			// after sleeping out its full reply window
			if pending != nil {
				pending <- turnResult{err: err}
			}
			if !closed && !websocket.IsCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cn.log.WithError(err).Warn("agent connection lost")
			}
			return
		}

		var msg serverMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			cn.log.WithError(err).Debug("unparseable agent event, dropped")
			continue
		}

		switch msg.Type {
		case "ping":
			// answered immediately so the service doesn't idle us out
			if err := cn.write(clientMsg{Type: "pong", EventID: msg.EventID}); err != nil {
				cn.log.WithError(err).Warn("pong failed")
			}

		case "agent_response_start":
			cn.mu.Lock()
			cn.buf.Reset()
			cn.inReply = true
			cn.mu.Unlock()

		case "agent_response_delta":
			cn.mu.Lock()
			if cn.inReply {
				cn.buf.WriteString(msg.Text)
			}
			cn.mu.Unlock()

		case "agent_response_stop":
			cn.mu.Lock()
			reply := cn.buf.String()
			cn.buf.Reset()
			cn.inReply = false
			pending := cn.pending
			cn.pending = nil
			cn.mu.Unlock()

			if pending != nil {
				pending <- turnResult{reply: reply}
			} else if cn.onAsync != nil {
				go cn.onAsync(cn.callSID, reply)
			}
		}
	}
}

func (c *Coordinator) drop(callSID string, cn *conn) {
	c.mu.Lock()
	if c.conns[callSID] == cn {
		delete(c.conns, callSID)
	}
	c.mu.Unlock()

	cn.mu.Lock()
	cn.closed = true
	ws := cn.ws
	cn.mu.Unlock()
	if ws != nil {
		_ = ws.Close()
	}
}

// EndCall closes the call's agent connection, if one was ever created. It
// never blocks on a dial still in flight; the dialer notices closed and
// tears the socket down itself.
func (c *Coordinator) EndCall(callSID string) {
	c.mu.Lock()
	cn := c.conns[callSID]
	delete(c.conns, callSID)
	c.mu.Unlock()

	if cn != nil {
		cn.mu.Lock()
		cn.closed = true
		ws := cn.ws
		cn.mu.Unlock()
		if ws != nil {
			_ = ws.Close()
		}
	}
}
