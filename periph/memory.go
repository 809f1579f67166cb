package periph

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/spikeputor/sim"
)

// Memory is a block of 16-bit words. Addresses wrap around the size of the
// block. A read-only memory acknowledges writes and drops them.
type Memory struct {
	providerBase

	words    []uint16
	readOnly bool
}

// NewRAM creates a writable memory.
func NewRAM(name string, words int) *Memory {
	return newMemory(name, words, false)
}

// NewROM creates a read-only memory.
func NewROM(name string, words int) *Memory {
	return newMemory(name, words, true)
}

func newMemory(name string, words int, readOnly bool) *Memory {
	if words <= 0 {
		panic("memory size must be positive")
	}

	return &Memory{
		providerBase: newProviderBase(name),
		words:        make([]uint16, words),
		readOnly:     readOnly,
	}
}

// Size returns the number of words in the memory.
func (m *Memory) Size() int {
	return len(m.words)
}

// ReadOnly returns true for a ROM.
func (m *Memory) ReadOnly() bool {
	return m.readOnly
}

func (m *Memory) index(addr uint32) int {
	return int(addr % uint32(len(m.words)))
}

// Peek returns a word without going through the bus.
func (m *Memory) Peek(addr uint32) uint16 {
	return m.words[m.index(addr)]
}

// Poke stores a word without going through the bus, even in a ROM.
func (m *Memory) Poke(addr uint32, data uint16) {
	m.words[m.index(addr)] = data
}

// Load stores big-endian words from the reader starting at the address. It
// returns the number of words stored.
func (m *Memory) Load(r io.Reader, addr uint32) (int, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	if len(buf)%2 != 0 {
		buf = append(buf, 0)
	}

	n := len(buf) / 2
	if n > len(m.words) {
		return 0, fmt.Errorf("%s: image of %d words does not fit in %d",
			m.Name(), n, len(m.words))
	}

	for i := 0; i < n; i++ {
		m.Poke(addr+uint32(i), binary.BigEndian.Uint16(buf[2*i:]))
	}

	return n, nil
}

// LoadFile stores the content of a file as big-endian words from the address.
func (m *Memory) LoadFile(path string, addr uint32) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return m.Load(f, addr)
}

// Eval takes a transfer.
func (m *Memory) Eval(ctx sim.TickCtx) error {
	s, ok := m.accept(ctx)
	if !ok {
		return nil
	}

	if s.We {
		if !m.readOnly {
			m.write(s.Addr, s.Data)
		}

		return nil
	}

	m.nextData = m.Peek(s.Addr)

	return nil
}

// Commit stores the write taken at this edge.
func (m *Memory) Commit() {
	if w := m.commit(m); w != nil {
		m.Poke(w.Addr, w.Data)
	}
}
