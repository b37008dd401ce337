package relay

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/labstack/gommon/log"
	"github.com/EzRa021/Muhu-voice-app/internal/boot"
	"github.com/EzRa021/Muhu-voice-app/internal/model"
)

type State int

const (
	StateConnecting State = iota
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

type Transition struct {
	From State
	To   State
}

// Monitor owns the relay socket. It tracks a tri-state connection signal
// derived from the socket and the host's network-reachability signal, and
// reconnects on a fixed-delay policy after every disconnection. Senders never
// touch the socket handle directly; they go through Send.
type Monitor struct {
	url           string
	retryInterval time.Duration
	maxAttempts   int
	clock         clock.Clock
	dialer        *websocket.Dialer

	mu          sync.Mutex
	state       State
	conn        *websocket.Conn
	dialing     bool
	online      bool
	attempts    int
	retryTimer  *clock.Timer
	closed      bool
	onFrame     func(Response)
	subscribers map[int]chan Transition
	nextSub     int
}

func NewMonitor(config *boot.Config, clk clock.Clock) *Monitor {
	return &Monitor{
		url:           config.Relay.URL,
		retryInterval: config.Relay.RetryInterval,
		maxAttempts:   config.Relay.MaxAttempts,
		clock:         clk,
		dialer:        websocket.DefaultDialer,
		state:         StateConnecting,
		online:        true,
		subscribers:   map[int]chan Transition{},
	}
}

// Start kicks off the initial connection attempt.
func (m *Monitor) Start() {
	go m.connect()
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetOnline feeds the host network-reachability signal. Going offline closes
// the socket; coming back online attempts a reconnect immediately rather
// than waiting out the retry timer.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	was := m.online
	m.online = online
	conn := m.conn
	m.mu.Unlock()

	if was == online {
		return
	}
	if !online {
		if conn != nil {
			conn.Close()
			return
		}
		m.transition(StateDisconnected)
		return
	}
	go m.connect()
}

// OnFrame registers the single inbound-frame handler. Frames arriving before
// a handler is registered are dropped.
func (m *Monitor) OnFrame(handler func(Response)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFrame = handler
}

// Subscribe returns a channel receiving each state transition exactly once,
// plus an unsubscribe func. Slow consumers miss events rather than block the
// monitor.
func (m *Monitor) Subscribe() (<-chan Transition, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Transition, 8)
	m.subscribers[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// Send writes a frame on the current socket. Returns model.ErrorNotConnected
// when there is no open socket.
func (m *Monitor) Send(frame Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConnected || m.conn == nil {
		return model.ErrorNotConnected
	}
	if err := m.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("writing relay frame: %w", err)
	}
	return nil
}

func (m *Monitor) Close() error {
	m.mu.Lock()
	m.closed = true
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	return nil
}

func (m *Monitor) connect() {
	m.mu.Lock()
	if m.closed || m.dialing || m.conn != nil {
		m.mu.Unlock()
		return
	}
	m.dialing = true
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	online := m.online
	m.mu.Unlock()

	if online {
		conn, resp, err := m.dialer.Dial(m.url, nil)
		if err == nil {
			m.mu.Lock()
			m.dialing = false
			if m.closed {
				m.mu.Unlock()
				conn.Close()
				return
			}
			m.conn = conn
			m.attempts = 0
			m.mu.Unlock()
			m.transition(StateConnected)
			go m.readPump(conn)
			return
		}
		if resp != nil {
			resp.Body.Close()
		}
		log.Warnf("relay dial failed: %v", err)
	}

	m.mu.Lock()
	m.dialing = false
	m.mu.Unlock()

	m.transition(StateDisconnected)
	m.scheduleRetry()
}

func (m *Monitor) readPump(conn *websocket.Conn) {
	for {
		resp := Response{}
		if err := conn.ReadJSON(&resp); err != nil {
			m.dropConn(conn)
			return
		}

		m.mu.Lock()
		handler := m.onFrame
		m.mu.Unlock()
		if handler == nil {
			log.Warnf("dropping relay response %s: no handler", resp.ID)
			continue
		}
		handler(resp)
	}
}

func (m *Monitor) dropConn(conn *websocket.Conn) {
	m.mu.Lock()
	if m.conn != conn {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	closed := m.closed
	m.mu.Unlock()

	conn.Close()
	if closed {
		return
	}
	m.transition(StateDisconnected)
	m.scheduleRetry()
}

// scheduleRetry arms at most one pending reconnect attempt, so repeated
// disconnect signals never spawn concurrent retry loops.
func (m *Monitor) scheduleRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.retryTimer != nil {
		return
	}
	m.attempts++
	if m.maxAttempts > 0 && m.attempts > m.maxAttempts {
		log.Errorf("relay reconnect: giving up after %d attempts", m.maxAttempts)
		return
	}
	m.retryTimer = m.clock.AfterFunc(m.retryInterval, func() {
		m.connect()
	})
}

func (m *Monitor) transition(to State) {
	m.mu.Lock()
	if m.state == to {
		m.mu.Unlock()
		return
	}
	from := m.state
	m.state = to
	subs := make([]chan Transition, 0, len(m.subscribers))
	for _, ch := range m.subscribers {
		subs = append(subs, ch)
	}
	m.mu.Unlock()

	log.Infof("relay connection %s -> %s", from, to)
	t := Transition{From: from, To: to}
	for _, ch := range subs {
		select {
		case ch <- t:
		default:
		}
	}
}
