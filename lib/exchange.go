package lib

import (
	"fmt"

	"github.com/Herwig9820/TCP-client-server/config"
)

// responseLength is the expected width of one echoed line on the wire:
// seven decimal digits plus CR+LF.
const responseLength = 9

// assembleResult is what one fed character did to the in-flight line.
type assembleResult int

const (
	assembleAwaiting assembleResult = iota // line not finished yet
	assembleComplete                       // line feed seen, line is done
)

// lineAssembler accumulates one delimiter-terminated line one character at a
// time across many ticks. The server retains every character so the echo
// reproduces the original framing byte for byte. The client drops only the
// framing itself: the terminator and a carriage return immediately before
// it; a carriage return elsewhere in the line is payload and is kept.
type lineAssembler struct {
	keepFraming bool
	pendingCR   bool
}

func (la *lineAssembler) feed(s *Session, b byte) assembleResult {
	if la.keepFraming {
		s.appendLine(b)
		if b == '\n' {
			return assembleComplete
		}
		return assembleAwaiting
	}

	switch b {
	case '\n':
		la.pendingCR = false
		return assembleComplete
	case '\r':
		// Held back until the next byte shows whether it is framing.
		if la.pendingCR {
			s.appendLine('\r')
		}
		la.pendingCR = true
		return assembleAwaiting
	default:
		if la.pendingCR {
			s.appendLine('\r')
			la.pendingCR = false
		}
		s.appendLine(b)
		return assembleAwaiting
	}
}

func (la *lineAssembler) reset() {
	la.pendingCR = false
}

// Exchanger streams one line of payload out and accumulates one line in,
// reading at most one character per tick. The client sends a sequence number
// and waits for the echo; the server assembles a request and echoes it back
// verbatim, looping on one transport session across many exchanges.
type Exchanger struct {
	session *Session
	tman    *TransportManager
	cfg     *config.Config
	clock   Clock
	diag    Diag
	asm     lineAssembler
}

func NewExchanger(session *Session, tman *TransportManager, cfg *config.Config, clock Clock, diag Diag) *Exchanger {
	return &Exchanger{
		session: session,
		tman:    tman,
		cfg:     cfg,
		clock:   clock,
		diag:    diag,
		asm:     lineAssembler{keepFraming: session.Role == RoleServer},
	}
}

// SendRequest fires exactly once per cycle on the client, only from
// TransportUp: it transmits the current sequence counter as a decimal line
// and arms the response wait.
func (ex *Exchanger) SendRequest() {
	if ex.session.Role != RoleClient || ex.session.State() != StateTransportUp {
		return
	}
	conn := ex.tman.Conn()
	if conn == nil {
		return
	}

	line := []byte(fmt.Sprintf("%07d\r\n", ex.session.txSeq))
	n, err := conn.Write(line)
	if err != nil || n != len(line) {
		// Loud, but not counted and not fatal; partial writes are not retried.
		ex.diag.Warnf("request write reported %d of %d bytes, err=%v", n, len(line), err)
	}
	ex.diag.Tracef("sent request %07d", ex.session.txSeq)

	ex.session.resetLine()
	ex.asm.reset()
	ex.session.exchangeStart = ex.clock.Now()
	ex.session.SetState(StateExchangePending)
}

// AssembleResponse runs on the client while a response is pending. It reads
// at most one character per tick; the line feed completes the exchange and
// the read timeout, anchored at exchange start, aborts it.
func (ex *Exchanger) AssembleResponse() {
	if ex.session.Role != RoleClient || ex.session.State() != StateExchangePending {
		return
	}
	conn := ex.tman.Conn()
	if conn == nil {
		return
	}
	now := ex.clock.Now()

	if conn.BytesAvailable() > 0 {
		b, ok := conn.ReadByte()
		if !ok {
			return
		}
		ex.session.touchActivity(now)
		if ex.asm.feed(ex.session, b) == assembleComplete {
			ex.diag.Tracef("response %q complete", ex.session.line())
			ex.session.txSeq++ // next request carries the next number
			ex.session.SetState(StateTeardown)
		}
		return
	}

	if now.Sub(ex.session.exchangeStart) >= ex.cfg.ReadTimeout() {
		ex.session.errorCount++
		ex.diag.Warnf("response timed out after %v", ex.cfg.ReadTimeout())
		ex.session.SetState(StateTeardown)
	}
}

// AssembleRequest runs on the server while it awaits a request (TransportUp).
// Unlike the client it keeps every character, CR and LF included, so the echo
// can reproduce the request byte for byte.
func (ex *Exchanger) AssembleRequest() {
	if ex.session.Role != RoleServer || ex.session.State() != StateTransportUp {
		return
	}
	conn := ex.tman.Conn()
	if conn == nil {
		return
	}
	now := ex.clock.Now()

	if conn.BytesAvailable() > 0 {
		b, ok := conn.ReadByte()
		if !ok {
			return
		}
		ex.session.touchActivity(now)
		if ex.asm.feed(ex.session, b) == assembleComplete {
			ex.diag.Tracef("request %q complete", ex.session.line())
			ex.session.SetState(StateExchangePending)
		}
		return
	}

	if now.Sub(ex.session.exchangeStart) >= ex.cfg.ReadTimeout() {
		ex.session.errorCount++
		ex.diag.Warnf("request timed out after %v", ex.cfg.ReadTimeout())
		ex.session.SetState(StateTeardown)
	}
}

// SendResponse echoes the assembled request back verbatim and re-arms the
// server for the next request on the same transport session.
func (ex *Exchanger) SendResponse() {
	if ex.session.Role != RoleServer || ex.session.State() != StateExchangePending {
		return
	}
	conn := ex.tman.Conn()
	if conn == nil {
		return
	}

	line := ex.session.line()
	n, err := conn.Write(line)
	if err != nil || n != responseLength {
		ex.diag.Warnf("response write reported %d bytes, expected %d, err=%v", n, responseLength, err)
	}
	ex.diag.Tracef("echoed response %q", line)

	now := ex.clock.Now()
	ex.session.resetLine()
	ex.session.exchangeStart = now
	ex.session.touchActivity(now)
	ex.session.SetState(StateTransportUp)
}
