package lib

import (
	"github.com/Herwig9820/TCP-client-server/config"
)

// Heartbeat emits the current state on a fixed period, independent of what
// the state machine is doing. The server variant additionally mutes itself
// after a configurable window of transport silence, announcing the muting
// exactly once, and resumes as soon as activity is seen again.
type Heartbeat struct {
	session *Session
	cfg     *config.Config
	clock   Clock
	diag    Diag
}

func NewHeartbeat(session *Session, cfg *config.Config, clock Clock, diag Diag) *Heartbeat {
	return &Heartbeat{
		session: session,
		cfg:     cfg,
		clock:   clock,
		diag:    diag,
	}
}

// Tick fires only when the heartbeat period has elapsed since the last beat.
func (hb *Heartbeat) Tick() {
	now := hb.clock.Now()
	if now.Sub(hb.session.lastHeartbeat) < hb.cfg.HeartbeatPeriod() {
		return
	}
	hb.session.lastHeartbeat = now

	if hb.session.Role == RoleServer && hb.cfg.SilenceTimeoutMs > 0 &&
		now.Sub(hb.session.lastActivity) >= hb.cfg.SilenceTimeout() {
		if !hb.session.hbMuted {
			hb.diag.Tracef("no transport activity for %v, muting heartbeat", hb.cfg.SilenceTimeout())
			hb.session.hbMuted = true
		}
		return
	}

	hb.session.hbMuted = false
	hb.diag.Tracef("heartbeat: %s", hb.session.State())
}
