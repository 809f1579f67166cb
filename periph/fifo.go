package periph

import "github.com/sarchlab/spikeputor/sim"

// DataValid is set in a word read from a FIFO port when the low byte holds
// data.
const DataValid uint16 = 0x8000

// fifoPort is a provider that hands out queued bytes one read at a time.
type fifoPort struct {
	providerBase

	queue []byte
	pop   bool
}

func (p *fifoPort) push(b ...byte) {
	p.queue = append(p.queue, b...)
}

// Pending returns the number of bytes waiting to be read.
func (p *fifoPort) Pending() int {
	return len(p.queue)
}

func (p *fifoPort) evalRead() {
	p.pop = false

	if len(p.queue) == 0 {
		p.nextData = 0
		return
	}

	p.nextData = DataValid | uint16(p.queue[0])
	p.pop = true
}

func (p *fifoPort) commitRead() {
	if p.pop {
		p.queue = p.queue[1:]
		p.pop = false
	}
}

// UART is the serial port. Reading returns the next received byte with
// DataValid set, or zero if nothing was received. Writing transmits the low
// byte.
type UART struct {
	fifoPort

	sent []byte
}

// NewUART creates a serial port.
func NewUART(name string) *UART {
	return &UART{fifoPort: fifoPort{providerBase: newProviderBase(name)}}
}

// Receive queues bytes as if they arrived on the serial line.
func (s *UART) Receive(b ...byte) {
	s.push(b...)
}

// Transmitted returns the bytes written to the port so far.
func (s *UART) Transmitted() []byte {
	return s.sent
}

// Eval takes a transfer.
func (s *UART) Eval(ctx sim.TickCtx) error {
	sig, ok := s.accept(ctx)
	s.pop = false

	if !ok {
		return nil
	}

	if sig.We {
		s.write(sig.Addr, sig.Data&0xFF)
		return nil
	}

	s.evalRead()

	return nil
}

// Commit transmits or consumes a byte.
func (s *UART) Commit() {
	if w := s.commit(s); w != nil {
		s.sent = append(s.sent, byte(w.Data))
	}

	s.commitRead()
}

// Keyboard is the port of the PS/2 keyboard. Reading returns the next scan
// code with DataValid set, or zero if no key event is queued. Writes are
// ignored.
type Keyboard struct {
	fifoPort
}

// NewKeyboard creates a keyboard port.
func NewKeyboard(name string) *Keyboard {
	return &Keyboard{fifoPort: fifoPort{providerBase: newProviderBase(name)}}
}

// Press queues scan codes.
func (k *Keyboard) Press(codes ...byte) {
	k.push(codes...)
}

// Eval takes a transfer.
func (k *Keyboard) Eval(ctx sim.TickCtx) error {
	sig, ok := k.accept(ctx)
	k.pop = false

	if !ok || sig.We {
		return nil
	}

	k.evalRead()

	return nil
}

// Commit consumes a scan code.
func (k *Keyboard) Commit() {
	k.commit(k)
	k.commitRead()
}
