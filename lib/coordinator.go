package lib

import (
	"context"
	"fmt"
	"time"

	"github.com/Herwig9820/TCP-client-server/config"
)

// Coordinator wires the session, the three functional managers, teardown and
// reporting into one cooperative cycle. Tick runs every component once in a
// fixed order and returns promptly; all waiting is expressed as "not yet"
// guards on timestamps inside the components, never as blocking calls.
type Coordinator struct {
	cfg       *config.Config
	session   *Session
	clock     Clock
	diag      Diag
	pulser    Pulser
	link      *LinkManager
	transport *TransportManager
	exchange  *Exchanger
	heartbeat *Heartbeat
}

// NewCoordinator builds the full state machine for the configured role. The
// ring pool backing the line buffers is created here, once per process.
func NewCoordinator(cfg *config.Config, drivers Drivers, diag Diag, clock Clock) (*Coordinator, error) {
	if drivers.Link == nil {
		return nil, fmt.Errorf("coordinator: nil LinkDriver")
	}

	var role Role
	switch cfg.Role {
	case config.RoleClient:
		role = RoleClient
		if drivers.Dialer == nil {
			return nil, fmt.Errorf("coordinator: client role requires a Dialer")
		}
	case config.RoleServer:
		role = RoleServer
		if drivers.Listener == nil {
			return nil, fmt.Errorf("coordinator: server role requires a Listener")
		}
	default:
		return nil, fmt.Errorf("coordinator: unknown role %q", cfg.Role)
	}

	if drivers.Pulser == nil {
		drivers.Pulser = NopPulser{}
	}
	if clock == nil {
		clock = SystemClock
	}

	initPool(cfg.PayloadPoolSize, cfg.PoolDebug)

	session := NewSession(role, cfg.InitialSequence, diag)
	session.touchActivity(clock.Now())

	// The server's listener is handed to the link manager too: it restarts
	// listening on every fresh link-up.
	var listener Listener
	if role == RoleServer {
		listener = drivers.Listener
	}

	tman := NewTransportManager(session, drivers.Dialer, listener, cfg, clock, diag)

	c := &Coordinator{
		cfg:       cfg,
		session:   session,
		clock:     clock,
		diag:      diag,
		pulser:    drivers.Pulser,
		link:      NewLinkManager(session, drivers.Link, listener, cfg, clock, diag),
		transport: tman,
		exchange:  NewExchanger(session, tman, cfg, clock, diag),
		heartbeat: NewHeartbeat(session, cfg, clock, diag),
	}
	return c, nil
}

// Session exposes the shared session, mainly for stats snapshots.
func (c *Coordinator) Session() *Session {
	return c.session
}

// Tick runs one complete pass. The invocation order is a correctness
// dependency: later components' no-op guards rely on state transitions made
// earlier in the same pass. Detection latency of any timeout is bounded by
// how often the host calls Tick, which this design deliberately leaves
// unbounded.
func (c *Coordinator) Tick() {
	c.pulser.Pulse()
	c.heartbeat.Tick()
	c.link.Tick()
	c.transport.Tick()

	if c.session.Role == RoleClient {
		c.exchange.SendRequest()
		c.exchange.AssembleResponse()
	} else {
		c.exchange.AssembleRequest()
		c.exchange.SendResponse()
	}

	c.teardownTick()
	c.reportTick()
}

// teardownTick unconditionally closes the transport session and records the
// stop timestamp after the close, anchoring the next retry window.
func (c *Coordinator) teardownTick() {
	if c.session.State() != StateTeardown {
		return
	}
	c.transport.CloseSession()
	c.session.lastTransportStop = c.clock.Now()
	c.session.connected = false
	c.session.SetState(StateReport)
}

// reportTick emits the cumulative cycle summary and arms the next transport
// session. The optional link-reset policy instead routes every Nth cycle
// back through a full re-association.
func (c *Coordinator) reportTick() {
	if c.session.State() != StateReport {
		return
	}
	st := c.session.Stats()
	c.diag.Tracef("cycle summary: link connects %d, transport connects %d, errors %d",
		st.LinkConnects, st.TransportConnects, st.Errors)

	c.session.reportCycles++
	if c.cfg.LinkResetEvery > 0 && c.session.reportCycles%c.cfg.LinkResetEvery == 0 {
		c.session.SetState(StateLinkConnectNow)
		return
	}
	c.session.SetState(StateTransportRetryWait)
}

// Run drives Tick off a host ticker until the context is cancelled, then
// closes whatever transport session is still open. Convenience for the role
// mains; tests call Tick directly.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.transport.CloseSession()
			c.diag.Tracef("coordinator stopped")
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}
