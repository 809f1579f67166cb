package periph

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/spikeputor/sim"
	"github.com/sarchlab/spikeputor/wishbone"
)

type flashState int

const (
	flashIdle flashState = iota
	flashReading
	flashAcking
)

type flashRegs struct {
	state flashState
	count int
	ptr   uint32
	ack   bool
	data  uint16
}

// Flash is the port of a parallel flash chip. Writing the port sets the word
// pointer. Reading the port returns the word at the pointer after the read
// latency of the chip and advances the pointer. A read abandoned before ACK
// leaves the pointer unchanged.
type Flash struct {
	*sim.ComponentBase

	port    wishbone.ProviderPort
	words   []uint16
	latency int

	cur  flashRegs
	next flashRegs
}

// NewFlash creates a flash of the given size in words that answers reads after
// latency cycles.
func NewFlash(name string, words, latency int) *Flash {
	if words <= 0 {
		panic("flash size must be positive")
	}

	if latency < 1 {
		panic("flash latency must be at least 1 cycle")
	}

	return &Flash{
		ComponentBase: sim.NewComponentBase(name),
		words:         make([]uint16, words),
		latency:       latency,
	}
}

// Connect attaches the flash to its port on the address decoder.
func (f *Flash) Connect(port wishbone.ProviderPort) {
	f.port = port
}

// Response returns the ACK and the word read.
func (f *Flash) Response() wishbone.Response {
	return wishbone.Response{Ack: f.cur.ack, Data: f.cur.data}
}

// Pointer returns the word pointer.
func (f *Flash) Pointer() uint32 {
	return f.cur.ptr
}

// Load programs big-endian words from the reader at the start of the flash.
func (f *Flash) Load(r io.Reader) (int, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	if len(buf)%2 != 0 {
		buf = append(buf, 0xFF)
	}

	n := len(buf) / 2
	if n > len(f.words) {
		return 0, fmt.Errorf("%s: image of %d words does not fit in %d",
			f.Name(), n, len(f.words))
	}

	for i := 0; i < n; i++ {
		f.words[i] = binary.BigEndian.Uint16(buf[2*i:])
	}

	return n, nil
}

// LoadFile programs the flash with the content of a file.
func (f *Flash) LoadFile(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return f.Load(file)
}

func (f *Flash) word(ptr uint32) uint16 {
	return f.words[ptr%uint32(len(f.words))]
}

// Eval follows the transfer.
func (f *Flash) Eval(ctx sim.TickCtx) error {
	if ctx.Reset {
		f.next = flashRegs{}
		return nil
	}

	f.next = f.cur
	f.next.ack = false

	var s wishbone.Signals
	if f.port != nil {
		s = f.port.Sample()
	}

	switch f.cur.state {
	case flashIdle:
		f.start(s)
	case flashReading:
		if !s.Active() {
			f.next.state = flashIdle
			return nil
		}

		f.countDown()
	case flashAcking:
		f.next.state = flashIdle
	}

	return nil
}

func (f *Flash) start(s wishbone.Signals) {
	if !s.Active() {
		return
	}

	if s.We {
		f.next.ptr = uint32(s.Data)
		f.next.ack = true
		f.next.state = flashAcking

		return
	}

	f.next.count = f.latency - 1
	f.next.state = flashReading
	f.countDown()
}

func (f *Flash) countDown() {
	if f.next.count > 0 {
		f.next.count--
		return
	}

	f.next.data = f.word(f.next.ptr)
	f.next.ptr++
	f.next.ack = true
	f.next.state = flashAcking
}

// Commit drives ACK and the data.
func (f *Flash) Commit() {
	f.cur = f.next
}
