package wishbone

// RegisteredAck is the acknowledge register of a peripheral adapter. ACK rises
// one edge after the adapter sees CYC and STB, stays high for a single cycle,
// and is never driven combinationally.
type RegisteredAck struct {
	ack  bool
	next bool
}

// Eval computes the next ACK level from the sampled signals. It returns true
// if the adapter accepts a transfer at this edge, which is when it should
// latch the write data or the read data to return.
func (r *RegisteredAck) Eval(s Signals, reset bool) bool {
	if reset {
		r.next = false
		return false
	}

	r.next = s.Active() && !r.ack

	return r.next
}

// Commit makes the computed ACK level visible.
func (r *RegisteredAck) Commit() {
	r.ack = r.next
}

// Ack returns the committed ACK level.
func (r *RegisteredAck) Ack() bool {
	return r.ack
}
