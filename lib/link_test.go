package lib

import (
	"testing"
	"time"
)

func TestLinkRetryThenSuccess(t *testing.T) {
	cfg := newTestConfig("client")
	clock := newFakeClock()
	diag := &memDiag{}
	session := newTestSession(RoleClient, 0, diag)
	driver := &fakeLink{failFirst: 2}
	lm := NewLinkManager(session, driver, nil, cfg, clock, diag)

	// First attempt fires immediately and fails.
	lm.Tick()
	if session.State() != StateLinkRetryWait {
		t.Fatalf("after first failure: expected %s, got %s", StateLinkRetryWait, session.State())
	}
	if driver.attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", driver.attempts)
	}

	// Within the retry delay nothing happens.
	clock.advance(50 * time.Millisecond)
	lm.Tick()
	if driver.attempts != 1 {
		t.Fatalf("attempted again before the retry delay elapsed (%d attempts)", driver.attempts)
	}

	// Second attempt after the delay, still failing.
	clock.advance(60 * time.Millisecond)
	lm.Tick()
	if driver.attempts != 2 || session.State() != StateLinkRetryWait {
		t.Fatalf("after second failure: attempts=%d state=%s", driver.attempts, session.State())
	}

	// Third attempt succeeds once the delay elapsed again.
	clock.advance(40 * time.Millisecond)
	lm.Tick()
	if driver.attempts != 2 {
		t.Fatalf("attempted again before the retry delay elapsed (%d attempts)", driver.attempts)
	}
	clock.advance(70 * time.Millisecond)
	lm.Tick()
	if session.State() != StateLinkUp {
		t.Fatalf("after success: expected %s, got %s", StateLinkUp, session.State())
	}
	if driver.attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", driver.attempts)
	}

	// Retries don't count as new association cycles.
	if session.Stats().LinkConnects != 1 {
		t.Errorf("expected link counter 1, got %d", session.Stats().LinkConnects)
	}

	trail := diag.stateTrail()
	expected := []string{"linkRetryWait", "linkRetryWait", "linkUp"}
	if len(trail) != len(expected) {
		t.Fatalf("expected trail %v, got %v", expected, trail)
	}
	for i := range expected {
		if trail[i] != expected[i] {
			t.Fatalf("expected trail %v, got %v", expected, trail)
		}
	}
}

func TestLinkNoopWhileAssociated(t *testing.T) {
	cfg := newTestConfig("client")
	clock := newFakeClock()
	diag := &memDiag{}
	session := newTestSession(RoleClient, 0, diag)
	driver := &fakeLink{}
	lm := NewLinkManager(session, driver, nil, cfg, clock, diag)

	lm.Tick() // associates
	session.SetState(StateTransportUp)

	clock.advance(time.Hour)
	lm.Tick()
	if driver.attempts != 1 {
		t.Errorf("expected no reassociation while associated, got %d attempts", driver.attempts)
	}
	if session.State() != StateTransportUp {
		t.Errorf("state changed to %s", session.State())
	}
}

func TestLinkLossWithSessionOpenForcesTeardown(t *testing.T) {
	cfg := newTestConfig("client")
	clock := newFakeClock()
	diag := &memDiag{}
	session := newTestSession(RoleClient, 0, diag)
	driver := &fakeLink{}
	lm := NewLinkManager(session, driver, nil, cfg, clock, diag)

	lm.Tick() // associates, cycle 1
	session.SetState(StateTransportUp)
	session.connected = true

	// Association drops underneath the transport session.
	driver.associated = false

	// Retry delay not yet elapsed since the last attempt: no-op.
	clock.advance(50 * time.Millisecond)
	lm.Tick()
	if session.State() != StateTransportUp {
		t.Fatalf("reacted before the retry delay elapsed, state %s", session.State())
	}

	// The open session must run through teardown first; no reassociation yet.
	clock.advance(60 * time.Millisecond)
	lm.Tick()
	if session.State() != StateTeardown {
		t.Fatalf("expected %s with a session open, got %s", StateTeardown, session.State())
	}
	if driver.attempts != 1 {
		t.Errorf("reassociated with the transport session still open (%d attempts)", driver.attempts)
	}
	if session.Connected() {
		t.Errorf("connected indicator should be cleared on link loss")
	}
}

func TestLinkLossReassociates(t *testing.T) {
	cfg := newTestConfig("client")
	clock := newFakeClock()
	diag := &memDiag{}
	session := newTestSession(RoleClient, 0, diag)
	driver := &fakeLink{}
	lm := NewLinkManager(session, driver, nil, cfg, clock, diag)

	lm.Tick() // associates, cycle 1

	// Loss surfacing with no transport session open reassociates directly.
	session.SetState(StateTransportRetryWait)
	driver.associated = false

	clock.advance(110 * time.Millisecond)
	lm.Tick()
	if driver.attempts != 2 {
		t.Fatalf("expected reassociation attempt, got %d attempts", driver.attempts)
	}
	if session.State() != StateLinkUp {
		t.Errorf("expected %s after reassociation, got %s", StateLinkUp, session.State())
	}
	// A loss-triggered reassociation is a new cycle.
	if session.Stats().LinkConnects != 2 {
		t.Errorf("expected link counter 2, got %d", session.Stats().LinkConnects)
	}
}

func TestLinkUpRestartsServerListener(t *testing.T) {
	cfg := newTestConfig("server")
	clock := newFakeClock()
	diag := &memDiag{}
	session := newTestSession(RoleServer, 0, diag)
	driver := &fakeLink{}
	listener := &fakeListener{}
	lm := NewLinkManager(session, driver, listener, cfg, clock, diag)

	session.acceptMisses = 33
	lm.Tick()
	if listener.listens != 1 {
		t.Fatalf("expected listener restart on link-up, got %d", listener.listens)
	}
	if session.acceptMisses != 0 {
		t.Errorf("accept poll muting counter not reset on fresh link-up")
	}
	if session.State() != StateLinkUp {
		t.Errorf("expected %s, got %s", StateLinkUp, session.State())
	}
}
