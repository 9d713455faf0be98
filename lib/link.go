package lib

import (
	"time"

	"github.com/Herwig9820/TCP-client-server/config"
)

// LinkManager owns the wireless association lifecycle. It attempts the first
// association immediately, paces retries by the link retry delay, and treats
// loss of association in any later state as an asynchronous fault that forces
// a re-association on the same pacing.
type LinkManager struct {
	session  *Session
	driver   LinkDriver
	listener Listener // server role only, restarted on every fresh link-up
	cfg      *config.Config
	clock    Clock
	diag     Diag
	retries  int // consecutive failed attempts in the current association cycle
}

func NewLinkManager(session *Session, driver LinkDriver, listener Listener, cfg *config.Config, clock Clock, diag Diag) *LinkManager {
	return &LinkManager{
		session:  session,
		driver:   driver,
		listener: listener,
		cfg:      cfg,
		clock:    clock,
		diag:     diag,
	}
}

// Tick runs one pass of the link manager. No-op unless it is the link's turn
// or the association was lost underneath a later state.
func (lm *LinkManager) Tick() {
	now := lm.clock.Now()

	switch lm.session.State() {
	case StateLinkConnectNow:
		lm.attempt(true)

	case StateLinkRetryWait:
		if now.Sub(lm.session.lastLinkAttempt) < lm.delay() {
			return
		}
		lm.attempt(false)

	default:
		// Transport or exchange states. Association loss here is an
		// asynchronous fault; reattempt on the same retry pacing.
		if lm.driver.IsAssociated() {
			return
		}
		if now.Sub(lm.session.lastLinkAttempt) < lm.delay() {
			return
		}
		lm.session.connected = false
		if lm.session.State().connected() {
			// A transport session is still open underneath the dead link. It
			// must run through teardown/report before the link comes back;
			// the reattempt happens from TransportRetryWait on a later pass.
			lm.diag.Warnf("link association lost with a transport session open, tearing down")
			lm.session.SetState(StateTeardown)
			return
		}
		lm.diag.Warnf("link association lost, reassociating")
		lm.attempt(true)
	}
}

// attempt drops and resets the interface, then tries one association. The
// attempt timestamp is recorded after the call completes, success or failure,
// so it anchors the next retry window either way. fresh marks the start of a
// new association cycle; only those bump the link counter, retries do not.
func (lm *LinkManager) attempt(fresh bool) {
	if fresh {
		lm.session.linkConnects++
		lm.retries = 0
	}

	lm.driver.DisconnectAndReset()
	err := lm.driver.Associate()
	lm.session.lastLinkAttempt = lm.clock.Now()

	if err != nil {
		lm.retries++
		lm.diag.Warnf("link association attempt failed: %v", err)
		lm.session.SetState(StateLinkRetryWait)
		return
	}

	lm.diag.Tracef("link associated, address %s, signal %d dBm",
		lm.driver.LocalAddress(), lm.driver.SignalStrength())
	lm.retries = 0

	if lm.listener != nil {
		if err := lm.listener.Listen(lm.cfg.ListenPort); err != nil {
			// Without a listener the link is useless to the server; retry the
			// whole association on the normal pacing.
			lm.diag.Warnf("listen on port %d failed: %v", lm.cfg.ListenPort, err)
			lm.session.SetState(StateLinkRetryWait)
			return
		}
		lm.session.acceptMisses = 0
	}

	lm.session.SetState(StateLinkUp)
}

func (lm *LinkManager) delay() (d time.Duration) {
	return retryDelay(lm.cfg.LinkRetryDelay(), lm.retries, lm.cfg.BackoffMultiplier, lm.cfg.MaxRetryDelay())
}
