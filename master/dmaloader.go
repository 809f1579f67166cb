package master

// DmaLoader copies a byte stream received on the serial line into memory. Two
// bytes make a word, high byte first, and consecutive words go to consecutive
// addresses from the start address.
type DmaLoader struct {
	*transactor

	addr    uint32
	pending []byte
	written int
}

// NewDmaLoader creates a loader that writes from the start address.
func NewDmaLoader(name string, start uint32) *DmaLoader {
	l := &DmaLoader{addr: start}
	l.transactor = newTransactor(name, l)

	return l
}

// Feed passes received bytes to the loader.
func (l *DmaLoader) Feed(b ...byte) {
	l.pending = append(l.pending, b...)
}

// SetStart moves the address of the next word.
func (l *DmaLoader) SetStart(addr uint32) {
	l.addr = addr
}

// Written returns the number of words stored.
func (l *DmaLoader) Written() int {
	return l.written
}

// Done returns true when every complete word received has been stored. A
// trailing odd byte waits for its partner.
func (l *DmaLoader) Done() bool {
	return len(l.pending) < 2 && !l.Busy()
}

func (l *DmaLoader) peekOp() (Op, bool) {
	if len(l.pending) < 2 {
		return Op{}, false
	}

	return Op{
		Write: true,
		Addr:  l.addr,
		Data:  uint16(l.pending[0])<<8 | uint16(l.pending[1]),
	}, true
}

func (l *DmaLoader) popOp() {
	l.pending = l.pending[2:]
	l.addr++
}

func (l *DmaLoader) finished(Result) {
	l.written++
}
