package lib

// ConnState is the single coordination variable every component reads. One
// Session steps through these states in the order driven by Coordinator.Tick:
//
//	LinkConnectNow -> LinkUp -> TransportUp -> ExchangePending -> Teardown
//	  -> Report -> TransportRetryWait -> LinkUp (once the delay elapses)
//
// LinkRetryWait branches off LinkConnectNow when association fails and loops
// back to itself or to LinkUp. There is no terminal state; the cycle is
// designed to run forever.
type ConnState int

const (
	StateLinkConnectNow     ConnState = iota // attempt link association immediately
	StateLinkRetryWait                       // association failed, wait out the retry delay
	StateLinkUp                              // link associated, no transport session yet
	StateTransportRetryWait                  // transport stopped, wait out the retry delay
	StateTransportUp                         // transport session up (client: ready to send, server: awaiting request)
	StateExchangePending                     // client: awaiting response; server: request received, awaiting send
	StateTeardown                            // close the transport session
	StateReport                              // emit cycle summary
)

// String returns the short trace token emitted on every state change.
func (s ConnState) String() string {
	switch s {
	case StateLinkConnectNow:
		return "linkConnectNow"
	case StateLinkRetryWait:
		return "linkRetryWait"
	case StateLinkUp:
		return "linkUp"
	case StateTransportRetryWait:
		return "transportRetryWait"
	case StateTransportUp:
		return "transportUp"
	case StateExchangePending:
		return "exchangePending"
	case StateTeardown:
		return "teardown"
	case StateReport:
		return "report"
	default:
		return "unknown"
	}
}

// atOrBeyondLinkUp reports whether a transport session may exist in state s.
func (s ConnState) atOrBeyondLinkUp() bool {
	return s != StateLinkConnectNow && s != StateLinkRetryWait
}

// connected reports whether state s implies a live transport session.
func (s ConnState) connected() bool {
	return s == StateTransportUp || s == StateExchangePending
}
