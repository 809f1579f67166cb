package sdram

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/spikeputor/sim"
	"github.com/sarchlab/spikeputor/wishbone"
)

type stubPort struct {
	s wishbone.Signals
}

func (p *stubPort) Sample() wishbone.Signals {
	return p.s
}

type stubCompleter struct {
	valid bool
	rdata uint16
}

func (c *stubCompleter) Valid() bool   { return c.valid }
func (c *stubCompleter) RData() uint16 { return c.rdata }

var _ = Describe("WishboneAdapter", func() {
	var (
		port      *stubPort
		completer *stubCompleter
		adapter   *WishboneAdapter
		clock     *sim.Clock
	)

	BeforeEach(func() {
		port = &stubPort{}
		completer = &stubCompleter{}
		adapter = &WishboneAdapter{
			ComponentBase: sim.NewComponentBase("Adapter"),
			completer:     completer,
		}
		adapter.Connect(port)

		clock = sim.NewClock("Clk", sim.NewSerialEngine(), 50*sim.MHz)
		clock.Register(adapter)
	})

	step := func() {
		ExpectWithOffset(1, clock.Step()).To(Succeed())
	}

	It("should raise REQ for a transfer", func() {
		port.s = wishbone.Signals{
			Cyc: true, Stb: true, We: true, Addr: 0x123456, Data: 0xBEEF,
		}

		step()

		Expect(adapter.Request()).To(Equal(Request{
			Req: true, We: true, Addr: 0x123456 & AddrMask, WData: 0xBEEF,
		}))
		Expect(adapter.Response().Ack).To(BeFalse())
	})

	It("should hold ACK low until VALID", func() {
		port.s = wishbone.Signals{Cyc: true, Stb: true, Addr: 0x100}

		for i := 0; i < 10; i++ {
			step()
			Expect(adapter.Response().Ack).To(BeFalse())
			Expect(adapter.Request().Req).To(BeTrue())
		}

		completer.valid = true
		completer.rdata = 0xABCD
		step()
		completer.valid = false

		Expect(adapter.Response()).To(Equal(
			wishbone.Response{Ack: true, Data: 0xABCD}))
		Expect(adapter.Request().Req).To(BeFalse())

		step()
		Expect(adapter.Response().Ack).To(BeFalse())
	})

	It("should fail when the master abandons the transfer", func() {
		port.s = wishbone.Signals{Cyc: true, Stb: true, Addr: 0x100}
		step()

		port.s = wishbone.Signals{}
		err := clock.Step()

		var pv *wishbone.ProtocolViolation
		Expect(errors.As(err, &pv)).To(BeTrue())
	})

	It("should fail when the master changes the transfer", func() {
		port.s = wishbone.Signals{Cyc: true, Stb: true, We: true, Data: 1}
		step()

		port.s.Data = 2
		err := clock.Step()

		var pv *wishbone.ProtocolViolation
		Expect(errors.As(err, &pv)).To(BeTrue())
	})

	It("should drop the request on reset", func() {
		port.s = wishbone.Signals{Cyc: true, Stb: true}
		step()

		clock.SetReset(true)
		step()

		Expect(adapter.Request().Req).To(BeFalse())
	})
})

var _ = Describe("SDRAM subsystem", func() {
	var (
		port  *stubPort
		comp  *Comp
		clock *sim.Clock
	)

	BeforeEach(func() {
		port = &stubPort{}
		comp = MakeBuilder().WithTiming(fastTiming()).Build("Sdram")
		comp.Adapter.Connect(port)

		clock = sim.NewClock("Clk", sim.NewSerialEngine(), 50*sim.MHz)
		for _, c := range comp.Clocked() {
			clock.Register(c)
		}

		for !comp.Controller.Initialized() {
			Expect(clock.Step()).To(Succeed())
		}
	})

	transfer := func(s wishbone.Signals) uint16 {
		s.Cyc = true
		s.Stb = true
		port.s = s

		for i := 0; !comp.Adapter.Response().Ack; i++ {
			ExpectWithOffset(1, i).To(BeNumerically("<", 50))
			ExpectWithOffset(1, clock.Step()).To(Succeed())
		}

		data := comp.Adapter.Response().Data
		port.s = wishbone.Signals{}
		ExpectWithOffset(1, clock.Step()).To(Succeed())

		return data
	}

	It("should serve transfers back to back", func() {
		transfer(wishbone.Signals{We: true, Addr: 0x000100, Data: 0xABCD})
		transfer(wishbone.Signals{We: true, Addr: 0x000200, Data: 0x1234})

		Expect(transfer(wishbone.Signals{Addr: 0x000100})).
			To(Equal(uint16(0xABCD)))
		Expect(transfer(wishbone.Signals{Addr: 0x000200})).
			To(Equal(uint16(0x1234)))
		Expect(comp.Controller.Stats().Writes).To(Equal(uint64(2)))
		Expect(comp.Controller.Stats().Reads).To(Equal(uint64(2)))
	})

	It("should wait for initialization before serving", func() {
		Expect(comp.Controller.ResetN()).To(BeTrue())
		Expect(comp.Controller.Busy()).To(BeFalse())
	})
})
