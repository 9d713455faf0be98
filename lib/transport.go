package lib

import (
	"time"

	"github.com/Herwig9820/TCP-client-server/config"
)

// acceptLogBudget is how many consecutive empty accept polls the server logs
// before muting further poll diagnostics for this connection cycle.
const acceptLogBudget = 20

// TransportManager owns the TCP connect-or-accept lifecycle on top of an
// associated link. The client dials the fixed peer; the server polls its
// listener once per tick. Either way it detects peer-initiated disconnects
// from every connected state and routes them to teardown.
type TransportManager struct {
	session  *Session
	dialer   Dialer   // client role
	listener Listener // server role
	cfg      *config.Config
	clock    Clock
	diag     Diag
	conn     TransportDriver // current transport session, nil when none
	retries  int             // client: consecutive failed connect attempts
}

func NewTransportManager(session *Session, dialer Dialer, listener Listener, cfg *config.Config, clock Clock, diag Diag) *TransportManager {
	return &TransportManager{
		session:  session,
		dialer:   dialer,
		listener: listener,
		cfg:      cfg,
		clock:    clock,
		diag:     diag,
	}
}

// Conn returns the current transport session, or nil.
func (tm *TransportManager) Conn() TransportDriver {
	return tm.conn
}

// Tick runs one pass of the transport manager. No-op unless the coordinator
// state is at or beyond LinkUp.
func (tm *TransportManager) Tick() {
	s := tm.session.State()
	if !s.atOrBeyondLinkUp() {
		return
	}
	now := tm.clock.Now()

	switch s {
	case StateLinkUp:
		tm.attempt(now)

	case StateTransportRetryWait:
		if now.Sub(tm.session.lastTransportStop) < tm.delay() {
			return
		}
		// Route through LinkUp first so the attempt branch always runs from
		// a single point.
		tm.session.SetState(StateLinkUp)
		tm.session.acceptMisses = 0
		tm.attempt(now)

	case StateTransportUp, StateExchangePending:
		if tm.conn != nil && tm.conn.IsConnected() {
			return
		}
		// The peer is not expected to hang up on its own; this is an anomaly.
		if tm.session.Role == RoleClient {
			tm.session.errorCount++
		}
		tm.diag.Warnf("transport peer disconnected unexpectedly, tearing down")
		tm.session.SetState(StateTeardown)
	}
}

func (tm *TransportManager) attempt(now time.Time) {
	if tm.session.Role == RoleClient {
		tm.dialPeer(now)
	} else {
		tm.pollAccept(now)
	}
}

// dialPeer makes one connect attempt to the fixed peer. The peer is expected
// to already be listening, so a failed attempt counts as an error.
func (tm *TransportManager) dialPeer(now time.Time) {
	conn, err := tm.dialer.Dial(tm.cfg.PeerAddress, tm.cfg.PeerPort)
	if err != nil {
		tm.session.errorCount++
		tm.retries++
		tm.diag.Warnf("transport connect to %s:%d failed: %v",
			tm.cfg.PeerAddress, tm.cfg.PeerPort, err)
		tm.session.lastTransportStop = tm.clock.Now()
		tm.session.SetState(StateTransportRetryWait)
		return
	}

	tm.conn = conn
	tm.retries = 0
	tm.session.connected = true
	tm.session.transportConnects++
	tm.session.touchActivity(now)
	tm.diag.Tracef("transport connected to %s:%d", tm.cfg.PeerAddress, tm.cfg.PeerPort)
	tm.session.SetState(StateTransportUp)
}

// pollAccept checks the listener for one pending peer. An empty poll is not
// an error; the server waits passively. Poll diagnostics are muted after
// acceptLogBudget consecutive misses per connection cycle.
func (tm *TransportManager) pollAccept(now time.Time) {
	conn, ok := tm.listener.AcceptPending()
	if !ok {
		tm.session.acceptMisses++
		if tm.session.acceptMisses <= acceptLogBudget {
			tm.diag.Tracef("no pending peer (poll %d)", tm.session.acceptMisses)
		} else if tm.session.acceptMisses == acceptLogBudget+1 {
			tm.diag.Tracef("still no pending peer, muting further poll output")
		}
		return
	}
	if !conn.IsConnected() {
		conn.Close()
		return
	}

	tm.conn = conn
	tm.session.acceptMisses = 0
	tm.session.resetLine()
	tm.session.exchangeStart = now
	tm.session.transportConnects++
	tm.session.touchActivity(now)
	tm.diag.Tracef("transport peer accepted, awaiting request")
	tm.session.SetState(StateTransportUp)
}

// CloseSession unconditionally closes the current transport session, if any.
// Called from the coordinator's teardown pass.
func (tm *TransportManager) CloseSession() {
	if tm.conn != nil {
		tm.conn.Close()
		tm.conn = nil
	}
}

func (tm *TransportManager) delay() time.Duration {
	return retryDelay(tm.cfg.TransportRetryDelay(), tm.retries, tm.cfg.BackoffMultiplier, tm.cfg.MaxRetryDelay())
}
