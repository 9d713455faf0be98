package lib

import "time"

// LinkDriver is the capability the core needs from the wireless association
// layer beneath the transport. Associate must be a short synchronous call;
// the retry pacing around it is the Link Manager's job, not the driver's.
type LinkDriver interface {
	// DisconnectAndReset drops any current association and fully resets the
	// interface so the next Associate starts from a clean slate.
	DisconnectAndReset()
	// Associate joins the configured network. Returns nil on success.
	Associate() error
	// IsAssociated reports the current link status as seen by the driver.
	IsAssociated() bool
	// LocalAddress returns the address assigned to this node, for diagnostics.
	LocalAddress() string
	// SignalStrength returns the current signal level in dBm, for diagnostics.
	SignalStrength() int
}

// TransportDriver is one live byte-stream session. All calls must return
// promptly; ReadByte and BytesAvailable are the non-blocking read surface the
// per-character exchanger is built on.
type TransportDriver interface {
	IsConnected() bool
	Write(p []byte) (int, error)
	// BytesAvailable reports how many inbound bytes can be read right now.
	BytesAvailable() int
	// ReadByte pops one inbound byte. ok is false if none is available.
	ReadByte() (b byte, ok bool)
	Close()
}

// Dialer creates outbound transport sessions (initiator role).
type Dialer interface {
	Dial(address string, port int) (TransportDriver, error)
}

// Listener accepts inbound transport sessions (acceptor role). AcceptPending
// never blocks; the Transport Manager polls it once per tick.
type Listener interface {
	Listen(port int) error
	AcceptPending() (TransportDriver, bool)
	Close()
}

// Clock abstracts the monotonic time source so tests can drive the state
// machine with a fake clock instead of real sleeps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the host wall clock.
var SystemClock Clock = systemClock{}

// Pulser is the optional debug pin toggled once per tick for external timing
// measurement. It has no effect on behavior.
type Pulser interface {
	Pulse()
}

// NopPulser is the Pulser used when no debug pin is wired.
type NopPulser struct{}

func (NopPulser) Pulse() {}

// Drivers bundles the external collaborators handed to NewCoordinator.
// Dialer is required for the client role, Listener for the server role.
type Drivers struct {
	Link     LinkDriver
	Dialer   Dialer
	Listener Listener
	Pulser   Pulser
}
