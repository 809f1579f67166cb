package addrdec

import (
	"math/bits"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/spikeputor/wishbone"
)

func access(addr uint32, we bool) wishbone.Signals {
	return wishbone.Signals{Cyc: true, Stb: true, We: we, Addr: addr}
}

var _ = Describe("Decode", func() {
	DescribeTable("segment addressing",
		func(addr uint32, we bool, want ProviderIndex, wantAddr uint32) {
			sel := Decode(SegmentAddressing, access(addr, we), 0)

			Expect(sel.Index).To(Equal(want))
			Expect(sel.Strobe).To(Equal(uint16(1) << uint(want)))
			Expect(sel.Addr).To(Equal(wantAddr))
		},
		Entry("RAM", uint32(0x0000), false, RAM, uint32(0x0000)),
		Entry("RAM top", uint32(0xFBFF), true, RAM, uint32(0xFBFF)),
		Entry("ROM read", uint32(0xFE00), false, ROM, uint32(0xFE00)),
		Entry("ROM write redirect", uint32(0xFE00), true, RAM, uint32(0xFE00)),
		Entry("ROM boundary read", uint32(0xFC00), false, ROM, uint32(0xFC00)),
		Entry("GPO", uint32(0x7FFC), true, GPO, uint32(0x7FFC)),
		Entry("GPI", uint32(0x7FFE), false, GPI, uint32(0x7FFE)),
		Entry("Segment", uint32(0x7FFA), true, Segment, uint32(0x7FFA)),
		Entry("Keyboard", uint32(0x7FF8), false, Keyboard, uint32(0x7FF8)),
		Entry("UART", uint32(0x7FF6), false, UART, uint32(0x7FF6)),
		Entry("Flash", uint32(0x7FF4), false, Flash, uint32(0x7FF4)),
		Entry("Sound", uint32(0x7FAC), true, Sound, uint32(0x7FAC)),
		Entry("no BANK_SEL register", uint32(0x7FAE), true, RAM, uint32(0x7FAE)),
		Entry("SDRAM segment", uint32(0x010100), false, SDRAM, uint32(0x010100)),
		Entry("SDRAM segment write", uint32(0x7F0200), true, SDRAM, uint32(0x7F0200)),
		Entry("ROM segment", uint32(0x810100), false, ROM, uint32(0x810100)),
		Entry("special in segment", uint32(0x017FFC), false, SDRAM, uint32(0x017FFC)),
		Entry("ROM offset in segment", uint32(0x01FE00), false, SDRAM, uint32(0x01FE00)),
	)

	DescribeTable("bank-select addressing",
		func(addr uint32, tga bool, bank uint16, want ProviderIndex, wantAddr uint32) {
			s := access(addr, false)
			s.TGA = tga

			sel := Decode(BankSelectAddressing, s, bank)

			Expect(sel.Index).To(Equal(want))
			Expect(sel.Addr).To(Equal(wantAddr))
		},
		Entry("RAM without tag", uint32(0x0100), false, uint16(1), RAM, uint32(0x0100)),
		Entry("RAM with bank 0", uint32(0x0100), true, uint16(0), RAM, uint32(0x0100)),
		Entry("SDRAM bank 1", uint32(0x0100), true, uint16(1), SDRAM, uint32(0x10100)),
		Entry("SDRAM bank 3", uint32(0x7FF0), true, uint16(3), SDRAM, uint32(0x37FF0)),
		Entry("GPO in bank 3", uint32(0x7FFC), true, uint16(3), GPO, uint32(0x7FFC)),
		Entry("GPI in bank 1", uint32(0x7FFE), true, uint16(1), GPI, uint32(0x7FFE)),
		Entry("BANK_SEL in bank 1", uint32(0x7FAE), true, uint16(1), BankSel, uint32(0x7FAE)),
		Entry("UART in bank 2", uint32(0x7FF6), true, uint16(2), UART, uint32(0x7FF6)),
		Entry("ROM bank 2", uint32(0x8100), true, uint16(2), ROM, uint32(0x28100)),
		Entry("bank upper bits ignored", uint32(0x0100), true, uint16(0x4), RAM, uint32(0x0100)),
		Entry("BANK_SEL register", uint32(0x7FAE), false, uint16(1), BankSel, uint32(0x7FAE)),
		Entry("segment bits ignored", uint32(0x010100), false, uint16(0), RAM, uint32(0x0100)),
	)

	It("should broadcast TGD writes to the segment display", func() {
		for _, a := range []Addressing{SegmentAddressing, BankSelectAddressing} {
			for _, addr := range []uint32{0x0000, 0x7FFC, 0xFE00, 0x810000} {
				s := access(addr, true)
				s.TGD = true
				s.TGA = true

				Expect(Decode(a, s, 1).Index).To(Equal(Segment))
			}
		}
	})

	It("should not broadcast TGD reads", func() {
		s := access(0x0100, false)
		s.TGD = true

		Expect(Decode(SegmentAddressing, s, 0).Index).To(Equal(RAM))
	})

	It("should select nothing when STB is low", func() {
		for _, a := range []Addressing{SegmentAddressing, BankSelectAddressing} {
			for _, addr := range []uint32{0x0000, 0x7FFC, 0xFE00, 0x010000} {
				s := wishbone.Signals{Cyc: true, We: true, TGD: true, Addr: addr}
				sel := Decode(a, s, 1)

				Expect(sel.Index).To(Equal(NoProvider))
				Expect(sel.Strobe).To(BeZero())
			}
		}
	})

	It("should produce a one-hot strobe for every base window address", func() {
		for _, a := range []Addressing{SegmentAddressing, BankSelectAddressing} {
			for addr := uint32(0); addr <= 0xFFFF; addr++ {
				for _, we := range []bool{false, true} {
					sel := Decode(a, access(addr, we), 0)

					if bits.OnesCount16(sel.Strobe) != 1 {
						Fail("strobe not one-hot")
					}
					if sel.Strobe != sel.Index.Strobe() {
						Fail("strobe does not match the index")
					}
				}
			}
		}
	})

	It("should name providers", func() {
		Expect(SDRAM.String()).To(Equal("SDRAM"))
		Expect(NoProvider.String()).To(Equal("ProviderIndex(-1)"))
		Expect(NoProvider.Strobe()).To(BeZero())
	})

	It("should parse addressing names", func() {
		a, err := ParseAddressing("bank")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(BankSelectAddressing))

		_, err = ParseAddressing("flat")
		Expect(err).To(HaveOccurred())
	})
})
