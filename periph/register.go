package periph

import "github.com/sarchlab/spikeputor/sim"

// Register is a single memory-mapped register, such as the general purpose
// output, the sound register, the segment display or BANK_SEL.
//
// An input register reads what is driven on its input and ignores writes.
type Register struct {
	providerBase

	value uint16
	input bool
	clear bool
}

// NewRegister creates a register the bus can write.
func NewRegister(name string) *Register {
	return &Register{providerBase: newProviderBase(name)}
}

// NewInputRegister creates a register that reads an external input.
func NewInputRegister(name string) *Register {
	return &Register{providerBase: newProviderBase(name), input: true}
}

// Value returns the content of the register.
func (r *Register) Value() uint16 {
	return r.value
}

// Bank returns the content of the register when it serves as BANK_SEL.
func (r *Register) Bank() uint16 {
	return r.value
}

// Drive sets the level of the input lines of an input register.
func (r *Register) Drive(v uint16) {
	if !r.input {
		panic("driving a register that is not an input")
	}

	r.value = v
}

// Eval takes a transfer.
func (r *Register) Eval(ctx sim.TickCtx) error {
	s, ok := r.accept(ctx)
	r.clear = ctx.Reset && !r.input

	if !ok {
		return nil
	}

	if s.We {
		if !r.input {
			r.write(s.Addr, s.Data)
		}

		return nil
	}

	r.nextData = r.value

	return nil
}

// Commit updates the register.
func (r *Register) Commit() {
	if w := r.commit(r); w != nil {
		r.value = w.Data
	}

	if r.clear {
		r.value = 0
	}
}
