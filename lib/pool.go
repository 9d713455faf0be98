package lib

import (
	"fmt"
	"log"

	rp "github.com/Clouded-Sabre/ringpool/lib"
)

// lineBufferLength bounds one in-flight message line, terminator included.
const lineBufferLength = 64

var (
	emptySlice []byte
	Pool       *rp.RingPool
)

// Payload is one bounded line buffer chunk managed by the ring pool. A
// Session owns exactly one chunk for the lifetime of the process and
// accumulates the inbound line into it one character at a time.
type Payload struct {
	payloadBytes []byte
	length       int
}

// NewPayload creates a new pool chunk. Signature as required by the ring pool.
func NewPayload(params ...interface{}) rp.DataInterface {
	if len(params) != 1 {
		log.Println("NewPayload: Invalid number of calling parameters. Should be only one: bufferlength")
		return nil
	}

	if len(emptySlice) == 0 { // initialize it
		emptySlice = make([]byte, lineBufferLength)
	}

	return &Payload{
		payloadBytes: make([]byte, lineBufferLength),
	}
}

// Reset clears the payload back to empty.
func (p *Payload) Reset() {
	copy(p.payloadBytes, emptySlice)
	p.length = 0
}

// PrintContent prints the content of the payload. Required by
// rp.DataInterface along with Reset.
func (p *Payload) PrintContent() {
	fmt.Println("Content:", string(p.payloadBytes[:p.length]))
}

// AppendByte adds one character to the accumulating line.
func (p *Payload) AppendByte(b byte) error {
	if p.length >= len(p.payloadBytes) {
		return fmt.Errorf("Payload AppendByte: line exceeds bufferLength(%d)", len(p.payloadBytes))
	}
	p.payloadBytes[p.length] = b
	p.length++
	return nil
}

// GetSlice returns the accumulated content.
func (p *Payload) GetSlice() []byte {
	return p.payloadBytes[:p.length]
}

// Length returns the number of accumulated bytes.
func (p *Payload) Length() int {
	return p.length
}

// initPool creates the global ring pool once. Called by NewCoordinator.
func initPool(poolSize int, poolDebug bool) {
	if Pool != nil {
		return
	}
	rp.Debug = poolDebug
	Pool = rp.NewRingPool("TCP: ", poolSize, NewPayload, lineBufferLength)
}
