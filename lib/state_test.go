package lib

import "testing"

func TestConnStateString(t *testing.T) {
	testCases := []struct {
		state    ConnState
		expected string
	}{
		{StateLinkConnectNow, "linkConnectNow"},
		{StateLinkRetryWait, "linkRetryWait"},
		{StateLinkUp, "linkUp"},
		{StateTransportRetryWait, "transportRetryWait"},
		{StateTransportUp, "transportUp"},
		{StateExchangePending, "exchangePending"},
		{StateTeardown, "teardown"},
		{StateReport, "report"},
		{ConnState(99), "unknown"},
	}

	for _, tc := range testCases {
		if got := tc.state.String(); got != tc.expected {
			t.Errorf("state %d: expected %q, got %q", int(tc.state), tc.expected, got)
		}
	}
}

func TestSetStateTracesEveryChange(t *testing.T) {
	diag := &memDiag{}
	s := newTestSession(RoleClient, 0, diag)

	if s.State() != StateLinkConnectNow {
		t.Fatalf("initial state: expected %s, got %s", StateLinkConnectNow, s.State())
	}

	s.SetState(StateLinkUp)
	s.SetState(StateTransportUp)
	s.SetState(StateTeardown)

	trail := diag.stateTrail()
	expected := []string{"linkUp", "transportUp", "teardown"}
	if len(trail) != len(expected) {
		t.Fatalf("expected %d trace tokens, got %v", len(expected), trail)
	}
	for i := range expected {
		if trail[i] != expected[i] {
			t.Errorf("trace %d: expected %q, got %q", i, expected[i], trail[i])
		}
	}
}

func TestConnectedStates(t *testing.T) {
	for _, s := range []ConnState{StateTransportUp, StateExchangePending} {
		if !s.connected() {
			t.Errorf("state %s should count as connected", s)
		}
	}
	for _, s := range []ConnState{StateLinkConnectNow, StateLinkRetryWait, StateLinkUp,
		StateTransportRetryWait, StateTeardown, StateReport} {
		if s.connected() {
			t.Errorf("state %s should not count as connected", s)
		}
	}
}
