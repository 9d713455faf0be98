package lib

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Herwig9820/TCP-client-server/config"
)

// fakeClock is a manually advanced Clock so tests control every timeout.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// memDiag records every diagnostic line for assertions.
type memDiag struct {
	lines []string
	warns []string
}

func (d *memDiag) Tracef(format string, args ...interface{}) {
	d.lines = append(d.lines, fmt.Sprintf(format, args...))
}

func (d *memDiag) Warnf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	d.lines = append(d.lines, line)
	d.warns = append(d.warns, line)
}

// stateTrail returns the sequence of state tokens traced so far.
func (d *memDiag) stateTrail() []string {
	var trail []string
	for _, line := range d.lines {
		if token, ok := strings.CutPrefix(line, "state -> "); ok {
			trail = append(trail, token)
		}
	}
	return trail
}

func (d *memDiag) countContaining(substr string) int {
	n := 0
	for _, line := range d.lines {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

var errAssocRefused = errors.New("association refused")

// fakeLink is a scriptable LinkDriver.
type fakeLink struct {
	failFirst  int // fail this many Associate calls before succeeding
	attempts   int
	resets     int
	associated bool
}

func (f *fakeLink) DisconnectAndReset() {
	f.resets++
	f.associated = false
}

func (f *fakeLink) Associate() error {
	f.attempts++
	if f.attempts <= f.failFirst {
		return errAssocRefused
	}
	f.associated = true
	return nil
}

func (f *fakeLink) IsAssociated() bool { return f.associated }

func (f *fakeLink) LocalAddress() string { return "192.168.4.2" }

func (f *fakeLink) SignalStrength() int { return -41 }

// fakeConn is a scriptable TransportDriver.
type fakeConn struct {
	inbound   []byte
	written   []byte
	reportN   int // reported write count override, -1 means actual
	writeErr  error
	connected bool
	closed    bool
	echo      bool // feed written bytes straight back as inbound
}

func newFakeConn() *fakeConn {
	return &fakeConn{connected: true, reportN: -1}
}

func (f *fakeConn) IsConnected() bool { return f.connected }

func (f *fakeConn) Write(p []byte) (int, error) {
	f.written = append(f.written, p...)
	if f.echo {
		f.inbound = append(f.inbound, p...)
	}
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	if f.reportN >= 0 {
		return f.reportN, nil
	}
	return len(p), nil
}

func (f *fakeConn) BytesAvailable() int { return len(f.inbound) }

func (f *fakeConn) ReadByte() (byte, bool) {
	if len(f.inbound) == 0 {
		return 0, false
	}
	b := f.inbound[0]
	f.inbound = f.inbound[1:]
	return b, true
}

func (f *fakeConn) Close() {
	f.closed = true
	f.connected = false
}

// fakeDialer hands out a fresh fakeConn per dial.
type fakeDialer struct {
	err   error
	echo  bool
	dials int
	last  *fakeConn
}

func (d *fakeDialer) Dial(address string, port int) (TransportDriver, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	c := newFakeConn()
	c.echo = d.echo
	d.last = c
	return c, nil
}

// fakeListener serves queued peers to AcceptPending.
type fakeListener struct {
	pending   []*fakeConn
	listens   int
	listenErr error
	closed    bool
}

func (l *fakeListener) Listen(port int) error {
	l.listens++
	return l.listenErr
}

func (l *fakeListener) AcceptPending() (TransportDriver, bool) {
	if len(l.pending) == 0 {
		return nil, false
	}
	c := l.pending[0]
	l.pending = l.pending[1:]
	return c, true
}

func (l *fakeListener) Close() { l.closed = true }

// newTestConfig returns short delays so tests stay fast with a fake clock.
func newTestConfig(role string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Role = role
	cfg.LinkRetryDelayMs = 100
	cfg.TransportRetryDelayMs = 50
	cfg.ReadTimeoutMs = 200
	cfg.HeartbeatPeriodMs = 1000
	cfg.SilenceTimeoutMs = 5000
	// Every test session takes one pool chunk for the process lifetime, so
	// size the shared pool for the whole test run.
	cfg.PayloadPoolSize = 256
	return cfg
}

// newTestSession builds a Session backed by the test pool.
func newTestSession(role Role, initialSeq uint32, diag Diag) *Session {
	initPool(256, false)
	return NewSession(role, initialSeq, diag)
}
