package sdram

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/spikeputor/sim"
	"github.com/sarchlab/spikeputor/wishbone"
)

type stubRequester struct {
	req Request
}

func (s *stubRequester) Request() Request {
	return s.req
}

var _ = Describe("Controller", func() {
	var (
		timing    Timing
		policy    RowPolicy
		comp      *Comp
		ctrl      *Controller
		requester *stubRequester
		clock     *sim.Clock
		log       *commandLog
	)

	build := func() {
		comp = MakeBuilder().
			WithTiming(timing).
			WithRowPolicy(policy).
			Build("Sdram")
		ctrl = comp.Controller
		requester = &stubRequester{}
		ctrl.requester = requester

		log = &commandLog{}
		ctrl.AcceptHook(log)

		clock = sim.NewClock("Clk", sim.NewSerialEngine(), 50*sim.MHz)
		clock.Register(ctrl)
		clock.Register(comp.Chip)
	}

	step := func() {
		ExpectWithOffset(1, clock.Step()).To(Succeed())
	}

	waitInit := func() {
		for i := 0; !ctrl.Initialized() || ctrl.Busy(); i++ {
			Expect(i).To(BeNumerically("<", 200))
			step()
		}
	}

	transact := func(req Request) (rdata uint16, validCycle uint64) {
		req.Req = true
		requester.req = req

		for i := 0; !ctrl.Valid(); i++ {
			ExpectWithOffset(1, i).To(BeNumerically("<", 100))
			ExpectWithOffset(1, clock.Step()).To(Succeed())
		}

		rdata = ctrl.RData()
		validCycle = clock.Cycle()
		requester.req = Request{}

		for i := 0; ctrl.Busy(); i++ {
			ExpectWithOffset(1, i).To(BeNumerically("<", 100))
			ExpectWithOffset(1, clock.Step()).To(Succeed())
		}

		return rdata, validCycle
	}

	read := func(addr uint32) uint16 {
		data, _ := transact(Request{Addr: addr})
		return data
	}

	write := func(addr uint32, data uint16) {
		transact(Request{We: true, Addr: addr, WData: data})
	}

	BeforeEach(func() {
		timing = fastTiming()
		policy = OpenPage
	})

	Context("during initialization", func() {
		BeforeEach(func() {
			build()
		})

		It("should take requests only after the sequence completes", func() {
			requester.req = Request{Req: true, Addr: 0x100}

			for !ctrl.Initialized() {
				Expect(ctrl.Busy()).To(BeTrue())
				Expect(ctrl.Valid()).To(BeFalse())
				step()
			}

			Expect(log.commands()).To(Equal([]Command{
				CmdPrecharge, CmdRefresh, CmdRefresh, CmdLoadMode, CmdActivate,
			}))
		})

		It("should space the commands by their timing", func() {
			waitInit()

			r := log.records
			Expect(r[0].Cycle).To(Equal(uint64(timing.InitWaitCycles)))
			Expect(r[0].Addr & a10).NotTo(BeZero())
			Expect(r[1].Cycle - r[0].Cycle).To(Equal(uint64(timing.TRP)))
			Expect(r[2].Cycle - r[1].Cycle).To(Equal(uint64(timing.TRFC)))
			Expect(r[3].Cycle - r[2].Cycle).To(Equal(uint64(timing.TRFC)))
			Expect(clock.Cycle() - r[3].Cycle).To(Equal(uint64(timing.TMRD)))
			Expect(comp.Chip.CASLatency()).To(Equal(2))
		})

		It("should restart the sequence on reset", func() {
			waitInit()

			clock.SetReset(true)
			step()
			Expect(ctrl.ResetN()).To(BeFalse())
			Expect(ctrl.State()).To(Equal(StateInitWait))
			Expect(ctrl.Busy()).To(BeTrue())
			Expect(ctrl.Pins().CKE).To(BeFalse())

			clock.SetReset(false)
			step()
			Expect(ctrl.ResetN()).To(BeTrue())

			waitInit()
			Expect(ctrl.Initialized()).To(BeTrue())
		})
	})

	Context("with open pages", func() {
		BeforeEach(func() {
			build()
			waitInit()
		})

		It("should read back what was written", func() {
			write(0x000100, 0xABCD)
			write(0x000200, 0x1234)

			Expect(read(0x000100)).To(Equal(uint16(0xABCD)))
			Expect(read(0x000200)).To(Equal(uint16(0x1234)))
			Expect(comp.Chip.Peek(0x000100)).To(Equal(uint16(0xABCD)))
		})

		It("should read zero from untouched memory", func() {
			Expect(read(0x3FFFFF)).To(BeZero())
		})

		It("should ignore address bits above the chip", func() {
			write(0x400123, 0x5555)

			Expect(read(0x000123)).To(Equal(uint16(0x5555)))
		})

		It("should deliver read data exactly CAS latency after READ", func() {
			write(0x000100, 0xABCD)

			data, validCycle := transact(Request{Addr: 0x000100})

			Expect(data).To(Equal(uint16(0xABCD)))
			Expect(validCycle - log.last(CmdRead).Cycle).To(Equal(uint64(2)))
		})

		It("should keep VALID high for a single cycle", func() {
			requester.req = Request{Req: true, Addr: 0x10}
			for !ctrl.Valid() {
				step()
			}

			requester.req = Request{}
			step()

			Expect(ctrl.Valid()).To(BeFalse())
		})

		It("should skip ACTIVATE on a page hit", func() {
			read(0x000100)
			start := clock.Cycle()

			read(0x000101)

			Expect(log.since(start)).To(Equal([]Command{CmdRead}))
			Expect(ctrl.Stats().PageHits).To(Equal(uint64(1)))
		})

		It("should precharge before opening another row", func() {
			read(0x000100)
			start := clock.Cycle()

			read(0x000200)

			Expect(log.since(start)).To(Equal([]Command{
				CmdPrecharge, CmdActivate, CmdRead,
			}))
			row, active := comp.Chip.OpenRow(0)
			Expect(active).To(BeTrue())
			Expect(row).To(Equal(uint16(2)))
		})

		It("should keep rows of other banks open", func() {
			read(0x000100)
			read(0x100100)
			start := clock.Cycle()

			read(0x000101)

			Expect(log.since(start)).To(Equal([]Command{CmdRead}))
			Expect(ctrl.Stats()).To(Equal(Stats{
				Reads:      3,
				PageHits:   1,
				PageMisses: 2,
				Refreshes:  uint64(timing.InitRefreshCount),
			}))
		})

		It("should be busy from acceptance to completion", func() {
			requester.req = Request{Req: true, Addr: 0x100}

			step()
			Expect(ctrl.Busy()).To(BeTrue())

			for !ctrl.Valid() {
				Expect(ctrl.Busy()).To(BeTrue())
				step()
			}

			Expect(ctrl.Busy()).To(BeTrue())
		})

		It("should not accept the same request twice", func() {
			requester.req = Request{Req: true, Addr: 0x100}
			for !ctrl.Valid() {
				step()
			}

			step()
			requester.req = Request{}
			for i := 0; i < 10; i++ {
				step()
			}

			Expect(ctrl.Stats().Reads).To(Equal(uint64(1)))
		})

		It("should fail when the request changes while busy", func() {
			requester.req = Request{Req: true, Addr: 0x100}
			step()
			requester.req.Addr = 0x101

			err := clock.Step()

			var pv *wishbone.ProtocolViolation
			Expect(errors.As(err, &pv)).To(BeTrue())
			Expect(pv.Component).To(Equal("Sdram.Controller"))
		})

		It("should fail when the request is dropped while busy", func() {
			requester.req = Request{Req: true, We: true, Addr: 0x100}
			step()
			requester.req = Request{}

			err := clock.Step()

			var pv *wishbone.ProtocolViolation
			Expect(errors.As(err, &pv)).To(BeTrue())
		})
	})

	Context("with closed pages", func() {
		BeforeEach(func() {
			policy = ClosePage
			build()
			waitInit()
		})

		It("should activate and precharge around every access", func() {
			write(0x000100, 0xBEEF)
			start := clock.Cycle()

			Expect(read(0x000101)).To(BeZero())
			Expect(read(0x000100)).To(Equal(uint16(0xBEEF)))

			Expect(log.since(start)).To(Equal([]Command{
				CmdActivate, CmdRead, CmdPrecharge,
				CmdActivate, CmdRead, CmdPrecharge,
			}))
			Expect(ctrl.Stats().PageHits).To(BeZero())
			Expect(ctrl.Stats().PageMisses).To(Equal(uint64(3)))
		})
	})

	Context("with CAS latency 3", func() {
		BeforeEach(func() {
			timing.CASLatency = 3
			build()
			waitInit()
		})

		It("should deliver read data three cycles after READ", func() {
			write(0x000042, 0x4242)

			data, validCycle := transact(Request{Addr: 0x000042})

			Expect(data).To(Equal(uint16(0x4242)))
			Expect(validCycle - log.last(CmdRead).Cycle).To(Equal(uint64(3)))
			Expect(comp.Chip.CASLatency()).To(Equal(3))
		})
	})

	Context("with refresh", func() {
		BeforeEach(func() {
			timing.RefreshInterval = 20
			build()
			waitInit()
		})

		It("should refresh periodically while idle", func() {
			before := ctrl.Stats().Refreshes

			for i := 0; i < 100; i++ {
				step()
			}

			Expect(ctrl.Stats().Refreshes - before).To(Equal(uint64(5)))
		})

		It("should refresh before a request that arrives with it", func() {
			read(0x000100)
			for ctrl.cur.refreshCount != uint64(timing.RefreshInterval-1) {
				step()
			}

			start := clock.Cycle()
			data, _ := transact(Request{Addr: 0x000100})

			Expect(data).To(BeZero())
			Expect(log.since(start)).To(Equal([]Command{
				CmdPrecharge, CmdRefresh, CmdActivate, CmdRead,
			}))
			Expect(ctrl.Stats().PageMisses).To(Equal(uint64(2)))
		})

		It("should keep data across refreshes", func() {
			write(0x200300, 0x7777)

			for i := 0; i < 100; i++ {
				step()
			}

			Expect(read(0x200300)).To(Equal(uint16(0x7777)))
		})
	})

	It("should report a refresh overrun", func() {
		build()
		waitInit()
		ctrl.timing.RefreshInterval = 2

		var err error
		for i := 0; i < 20 && err == nil; i++ {
			err = clock.Step()
		}

		var overrun *wishbone.RefreshOverrun
		Expect(errors.As(err, &overrun)).To(BeTrue())
		Expect(overrun.Pending).To(Equal(uint64(2)))
	})

	It("should reject invalid timing", func() {
		timing.CASLatency = 4
		Expect(func() { build() }).To(Panic())
	})

	It("should reject a refresh interval within a busy span", func() {
		timing.RefreshInterval = timing.LongestBusySpan()
		Expect(func() { build() }).To(Panic())
	})
})
