package master

// ScriptedMaster runs a queue of transfers. It stands in for the CPU in tests
// and in the self test.
type ScriptedMaster struct {
	*transactor

	queue   []Op
	results []Result
}

// NewScriptedMaster creates a master with an empty queue.
func NewScriptedMaster(name string) *ScriptedMaster {
	m := &ScriptedMaster{}
	m.transactor = newTransactor(name, m)

	return m
}

// Enqueue appends transfers to the queue.
func (m *ScriptedMaster) Enqueue(ops ...Op) {
	m.queue = append(m.queue, ops...)
}

// Read appends a read.
func (m *ScriptedMaster) Read(addr uint32) {
	m.Enqueue(Op{Addr: addr})
}

// Write appends a write.
func (m *ScriptedMaster) Write(addr uint32, data uint16) {
	m.Enqueue(Op{Write: true, Addr: addr, Data: data})
}

// Idle returns true when the queue is empty and no transfer is in progress.
func (m *ScriptedMaster) Idle() bool {
	return len(m.queue) == 0 && !m.Busy()
}

// Results returns the outcome of the transfers completed so far.
func (m *ScriptedMaster) Results() []Result {
	return m.results
}

// LastResult returns the outcome of the last completed transfer.
func (m *ScriptedMaster) LastResult() (Result, bool) {
	if len(m.results) == 0 {
		return Result{}, false
	}

	return m.results[len(m.results)-1], true
}

func (m *ScriptedMaster) peekOp() (Op, bool) {
	if len(m.queue) == 0 {
		return Op{}, false
	}

	return m.queue[0], true
}

func (m *ScriptedMaster) popOp() {
	m.queue = m.queue[1:]
}

func (m *ScriptedMaster) finished(r Result) {
	m.results = append(m.results, r)
}
