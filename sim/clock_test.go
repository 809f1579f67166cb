package sim

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

// register is a one-bit delay element: q takes the value of its source at
// every edge.
type register struct {
	name    string
	q, next bool
	source  func() bool
}

func (r *register) Name() string { return r.name }

func (r *register) Eval(ctx TickCtx) error {
	if ctx.Reset {
		r.next = false
		return nil
	}

	r.next = r.source()

	return nil
}

func (r *register) Commit() { r.q = r.next }

type edgeCounter struct {
	edges []TickCtx
}

func (h *edgeCounter) Func(ctx HookCtx) {
	if ctx.Pos == HookPosClockEdge {
		h.edges = append(h.edges, ctx.Item.(TickCtx))
	}
}

var _ = Describe("Clock", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
		clock    *Clock
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
		clock = NewClock("Clk", engine, 50*MHz)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should evaluate all members before committing any", func() {
		m1 := NewMockClocked(mockCtrl)
		m2 := NewMockClocked(mockCtrl)
		m1.EXPECT().Name().Return("M1").AnyTimes()
		m2.EXPECT().Name().Return("M2").AnyTimes()
		clock.Register(m1)
		clock.Register(m2)

		eval1 := m1.EXPECT().Eval(TickCtx{Cycle: 1})
		eval2 := m2.EXPECT().Eval(TickCtx{Cycle: 1})
		m1.EXPECT().Commit().After(eval1).After(eval2)
		m2.EXPECT().Commit().After(eval1).After(eval2)

		Expect(clock.Step()).To(Succeed())
		Expect(clock.Cycle()).To(Equal(uint64(1)))
	})

	It("should not commit when a member fails", func() {
		m1 := NewMockClocked(mockCtrl)
		m1.EXPECT().Name().Return("M1").AnyTimes()
		clock.Register(m1)
		failure := errors.New("boom")

		m1.EXPECT().Eval(gomock.Any()).Return(failure)

		err := clock.Step()

		Expect(err).To(MatchError(failure))
		Expect(err.Error()).To(ContainSubstring("cycle 1, M1"))
		Expect(clock.Cycle()).To(Equal(uint64(0)))
	})

	It("should panic on duplicated members", func() {
		r := &register{name: "R", source: func() bool { return true }}
		clock.Register(r)

		Expect(func() { clock.Register(r) }).To(Panic())
	})

	It("should be independent of registration order", func() {
		a := &register{name: "A"}
		b := &register{name: "B"}
		a.source = func() bool { return !b.q }
		b.source = func() bool { return a.q }

		clock.Register(b)
		clock.Register(a)

		Expect(clock.Step()).To(Succeed())
		Expect(a.q).To(BeTrue())
		Expect(b.q).To(BeFalse())

		Expect(clock.Step()).To(Succeed())
		Expect(a.q).To(BeTrue())
		Expect(b.q).To(BeTrue())
	})

	It("should apply the reset level", func() {
		r := &register{name: "R", source: func() bool { return true }}
		clock.Register(r)

		clock.SetReset(true)
		Expect(clock.Step()).To(Succeed())
		Expect(r.q).To(BeFalse())

		clock.SetReset(false)
		Expect(clock.Step()).To(Succeed())
		Expect(r.q).To(BeTrue())
	})

	It("should run cycles through the engine", func() {
		counter := &edgeCounter{}
		clock.AcceptHook(counter)

		Expect(clock.RunCycles(10)).To(Succeed())

		Expect(clock.Cycle()).To(Equal(uint64(10)))
		Expect(counter.edges).To(HaveLen(10))
		Expect(counter.edges[9].Cycle).To(Equal(uint64(10)))
		Expect(engine.CurrentTime()).
			To(BeNumerically("~", 10*(50*MHz).Period(), 1e-15))
	})

	It("should run until a condition holds", func() {
		err := clock.RunUntil(func() bool { return clock.Cycle() >= 4 }, 100)

		Expect(err).To(Succeed())
		Expect(clock.Cycle()).To(Equal(uint64(4)))
	})

	It("should report the cycle limit", func() {
		err := clock.RunUntil(func() bool { return false }, 5)

		Expect(errors.Is(err, ErrCycleLimit)).To(BeTrue())
		Expect(clock.Cycle()).To(Equal(uint64(5)))
	})
})
