package lib

import (
	"time"

	rp "github.com/Clouded-Sabre/ringpool/lib"
)

// Role tells the components which side of the exchange they drive.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// Stats is a point-in-time snapshot of the session counters.
type Stats struct {
	State             ConnState
	LinkConnects      uint32
	TransportConnects uint32
	Errors            uint32
	TxSequence        uint32
}

// Session is the shared context object every component reads. It replaces
// what used to be process-wide globals on the device: the connection state,
// the timestamps anchoring the retry/timeout windows, the diagnostic
// counters and the in-flight line buffer. All access happens on the single
// tick goroutine, so no locking is needed; SetState is the only legal way to
// change the state field.
type Session struct {
	Role Role

	diag  Diag
	state ConnState

	// Timestamps anchoring the interleaved timeouts
	lastLinkAttempt   time.Time // set after each association attempt, success or failure
	lastTransportStop time.Time // set after each transport close or failed connect
	exchangeStart     time.Time // set when a new expectation of inbound data begins
	lastHeartbeat     time.Time // set each time a heartbeat fires
	lastActivity      time.Time // last transport activity, drives server heartbeat muting

	// Counters, diagnostics only; they never steer control flow
	linkConnects      uint32
	transportConnects uint32
	errorCount        uint32
	txSeq             uint32 // client only: outgoing message sequence

	connected bool // external "connected" indicator (client LED on the device)

	chunk *rp.Element // pooled in-flight line buffer, owned for the process lifetime

	acceptMisses int  // server: consecutive empty accept polls, for log muting
	reportCycles int  // completed teardown/report cycles
	hbMuted      bool // server: heartbeat muted by the silence window
}

// NewSession creates the process-wide session in the initial state. The
// caller must have initialized the ring pool first.
func NewSession(role Role, initialSeq uint32, diag Diag) *Session {
	s := &Session{
		Role:  role,
		diag:  diag,
		state: StateLinkConnectNow,
		txSeq: initialSeq,
		chunk: Pool.GetElement(),
	}
	s.resetLine()
	return s
}

// State returns the current connection state.
func (s *Session) State() ConnState {
	return s.state
}

// SetState is the sole mutator of the connection state. It unconditionally
// emits the trace token of the new state; the heartbeat and the tests rely
// on those tokens.
func (s *Session) SetState(next ConnState) {
	s.state = next
	s.diag.Tracef("state -> %s", next)
}

// Stats returns a snapshot of the counters for reporting.
func (s *Session) Stats() Stats {
	return Stats{
		State:             s.state,
		LinkConnects:      s.linkConnects,
		TransportConnects: s.transportConnects,
		Errors:            s.errorCount,
		TxSequence:        s.txSeq,
	}
}

// Connected reports the external connected indicator.
func (s *Session) Connected() bool {
	return s.connected
}

// touchActivity records transport activity for the heartbeat silence window.
func (s *Session) touchActivity(now time.Time) {
	s.lastActivity = now
}

// line returns the accumulated inbound line.
func (s *Session) line() []byte {
	return s.payload().GetSlice()
}

// resetLine empties the inbound buffer. Called exactly when a new
// expectation of inbound data begins.
func (s *Session) resetLine() {
	s.payload().Reset()
}

// appendLine adds one inbound character, dropping it with a warning if the
// bounded buffer is full.
func (s *Session) appendLine(b byte) {
	if err := s.payload().AppendByte(b); err != nil {
		s.diag.Warnf("inbound line overflow, dropping byte 0x%02x: %v", b, err)
	}
}

func (s *Session) payload() *Payload {
	return s.chunk.Data.(*Payload)
}
