package lib

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
)

const (
	readStageSize  = 1024 // buffered inbound bytes per connection
	pendingBacklog = 1    // accepted peers waiting for the tick loop
)

// TCPConn adapts one net.Conn to the non-blocking TransportDriver surface.
// A background reader goroutine stages inbound bytes into a channel; the
// tick path drains it with BytesAvailable/ReadByte and never blocks.
type TCPConn struct {
	conn        net.Conn
	readCh      chan byte
	closeSignal chan struct{}
	mu          sync.Mutex
	connected   bool
	closeOnce   sync.Once
	wg          sync.WaitGroup
}

func newTCPConn(conn net.Conn) *TCPConn {
	t := &TCPConn{
		conn:        conn,
		readCh:      make(chan byte, readStageSize),
		closeSignal: make(chan struct{}),
		connected:   true,
	}
	t.wg.Add(1)
	go t.readLoop()
	return t
}

func (t *TCPConn) readLoop() {
	defer t.wg.Done()

	buf := make([]byte, 256)
	for {
		n, err := t.conn.Read(buf)
		for i := 0; i < n; i++ {
			select {
			case t.readCh <- buf[i]:
			case <-t.closeSignal:
				return
			}
		}
		if err != nil {
			t.mu.Lock()
			t.connected = false
			t.mu.Unlock()
			return
		}
	}
}

func (t *TCPConn) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	// Staged bytes are still readable after the peer hung up; the session
	// counts as live until they are drained.
	return t.connected || len(t.readCh) > 0
}

func (t *TCPConn) Write(p []byte) (int, error) {
	return t.conn.Write(p)
}

func (t *TCPConn) BytesAvailable() int {
	return len(t.readCh)
}

func (t *TCPConn) ReadByte() (byte, bool) {
	select {
	case b := <-t.readCh:
		return b, true
	default:
		return 0, false
	}
}

func (t *TCPConn) Close() {
	t.closeOnce.Do(func() {
		close(t.closeSignal)
		t.conn.Close()
		t.mu.Lock()
		t.connected = false
		t.mu.Unlock()
		t.wg.Wait()
	})
}

// TCPDialer dials the peer with a bounded timeout so a single connect call
// stays short even when the peer is unreachable.
type TCPDialer struct {
	timeout time.Duration
}

func NewTCPDialer(timeout time.Duration) *TCPDialer {
	return &TCPDialer{timeout: timeout}
}

func (d *TCPDialer) Dial(address string, port int) (TransportDriver, error) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(address, strconv.Itoa(port)), d.timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s:%d: %w", address, port, err)
	}
	return newTCPConn(conn), nil
}

// TCPListener accepts peers in a background goroutine and parks them on a
// channel so AcceptPending can poll without blocking. Listen is restartable;
// the link manager calls it again after every reassociation.
type TCPListener struct {
	diag        Diag
	mu          sync.Mutex
	ln          net.Listener
	pending     chan *TCPConn
	closeSignal chan struct{}
	wg          sync.WaitGroup
}

func NewTCPListener(diag Diag) *TCPListener {
	return &TCPListener{diag: diag}
}

func (l *TCPListener) Listen(port int) error {
	l.Close() // drop any previous listener before rebinding

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", port, err)
	}

	l.mu.Lock()
	l.ln = ln
	l.pending = make(chan *TCPConn, pendingBacklog)
	l.closeSignal = make(chan struct{})
	l.mu.Unlock()

	l.wg.Add(1)
	go l.acceptLoop(ln, l.pending, l.closeSignal)
	return nil
}

func (l *TCPListener) acceptLoop(ln net.Listener, pending chan *TCPConn, closeSignal chan struct{}) {
	defer l.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-closeSignal:
			default:
				l.diag.Warnf("accept failed: %v", err)
			}
			return
		}
		select {
		case pending <- newTCPConn(conn):
		case <-closeSignal:
			conn.Close()
			return
		}
	}
}

func (l *TCPListener) AcceptPending() (TransportDriver, bool) {
	l.mu.Lock()
	pending := l.pending
	l.mu.Unlock()
	if pending == nil {
		return nil, false
	}

	select {
	case conn := <-pending:
		return conn, true
	default:
		return nil, false
	}
}

func (l *TCPListener) Close() {
	l.mu.Lock()
	ln := l.ln
	closeSignal := l.closeSignal
	pending := l.pending
	l.ln = nil
	l.pending = nil
	l.closeSignal = nil
	l.mu.Unlock()

	if ln == nil {
		return
	}
	close(closeSignal)
	ln.Close()
	l.wg.Wait()

	// Drop peers that were accepted but never handed to the state machine.
	for {
		select {
		case conn := <-pending:
			conn.Close()
		default:
			return
		}
	}
}
