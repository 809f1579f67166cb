package board

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/spikeputor/addrdec"
	"github.com/sarchlab/spikeputor/master"
	"github.com/sarchlab/spikeputor/wishbone"
)

const budget = 200

var _ = Describe("Board", func() {
	var (
		brd *Board
		log *transferLog
	)

	build := func(cfg Config) {
		var err error
		brd, err = MakeBuilder().WithConfig(cfg).Build("Board")
		Expect(err).NotTo(HaveOccurred())

		log = &transferLog{}
		brd.AcceptHook(log)
	}

	start := func() {
		Expect(brd.Reset(2)).To(Succeed())
		Expect(brd.WaitSDRAMReady(budget)).To(Succeed())
	}

	It("should refuse to run before reset", func() {
		build(testConfig())

		Expect(brd.Step()).To(MatchError(wishbone.ErrNotReset))
		Expect(brd.RunCycles(10)).To(MatchError(wishbone.ErrNotReset))
	})

	It("should fail to build with a missing image", func() {
		cfg := testConfig()
		cfg.ROMImage = "/nonexistent/rom.bin"

		_, err := MakeBuilder().WithConfig(cfg).Build("Board")

		Expect(err).To(HaveOccurred())
	})

	Context("with segment addressing", func() {
		BeforeEach(func() {
			build(testConfig())
			start()
		})

		It("should read back RAM", func() {
			Expect(brd.Write(0x0100, 0x1234, budget)).To(Succeed())

			data, err := brd.Read(0x0100, budget)

			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(uint16(0x1234)))
			Expect(log.last().Provider).To(Equal(addrdec.RAM))
		})

		It("should redirect writes to the ROM window into RAM", func() {
			brd.ROM.Poke(0xFE00, 0x5555)

			Expect(brd.Write(0xFE00, 0xBEEF, budget)).To(Succeed())
			Expect(log.last().Provider).To(Equal(addrdec.RAM))

			data, err := brd.Read(0xFE00, budget)
			Expect(err).NotTo(HaveOccurred())
			Expect(log.last().Provider).To(Equal(addrdec.ROM))

			Expect(data).To(Equal(uint16(0x5555)))
			Expect(brd.RAM.Peek(0xFE00)).To(Equal(uint16(0xBEEF)))
			Expect(brd.ROM.Peek(0xFE00)).To(Equal(uint16(0x5555)))
		})

		It("should route a segment with the top bit clear to SDRAM", func() {
			Expect(brd.Write(0x010100, 0xABCD, budget)).To(Succeed())
			Expect(log.last().Provider).To(Equal(addrdec.SDRAM))

			Expect(brd.Write(0x010200, 0x1234, budget)).To(Succeed())

			data, err := brd.Read(0x010100, budget)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(uint16(0xABCD)))

			data, err = brd.Read(0x010200, budget)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(uint16(0x1234)))

			Expect(brd.SDRAM.Chip.Peek(0x010100)).To(Equal(uint16(0xABCD)))
			Expect(brd.RAM.Peek(0x0100)).To(Equal(uint16(0)))
		})

		It("should route a segment with the top bit set to ROM", func() {
			brd.ROM.Poke(0x0100, 0x7777)

			data, err := brd.Read(0x800100, budget)

			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(uint16(0x7777)))
			Expect(log.last().Provider).To(Equal(addrdec.ROM))
		})

		It("should reach the registers", func() {
			Expect(brd.Write(addrdec.AddrGPO, 0x00F0, budget)).To(Succeed())
			Expect(brd.GPO.Value()).To(Equal(uint16(0x00F0)))

			Expect(brd.Write(addrdec.AddrSound, 0x0440, budget)).To(Succeed())
			Expect(brd.Sound.Value()).To(Equal(uint16(0x0440)))

			brd.GPI.Drive(0x0F0F)
			data, err := brd.Read(addrdec.AddrGPI, budget)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(uint16(0x0F0F)))
		})

		It("should broadcast tagged writes to the segment display", func() {
			_, err := brd.Transact(master.Op{
				Write: true,
				Addr:  0x0005,
				Data:  0x0042,
				TGD:   true,
			}, budget)

			Expect(err).NotTo(HaveOccurred())
			Expect(brd.Segment.Value()).To(Equal(uint16(0x0042)))
			Expect(brd.RAM.Peek(0x0005)).To(Equal(uint16(0)))
		})

		It("should serve the CPU before the other masters", func() {
			brd.Stepper.Trigger()
			brd.CPU.Read(0x0001)

			Expect(brd.RunUntil(func() bool {
				return brd.CPU.Idle() && brd.Stepper.Done()
			}, budget)).To(Succeed())

			Expect(log.transfers).To(HaveLen(2))
			Expect(log.transfers[0].Master).To(Equal(0))
			Expect(log.transfers[1].Master).To(Equal(2))
		})

		It("should load serial data through DMA", func() {
			brd.Upload(0x0300, []byte{0xDE, 0xAD, 0xBE, 0xEF})

			Expect(brd.RunUntil(brd.Loader.Done, budget)).To(Succeed())

			Expect(brd.RAM.Peek(0x0300)).To(Equal(uint16(0xDEAD)))
			Expect(brd.RAM.Peek(0x0301)).To(Equal(uint16(0xBEEF)))
		})

		It("should report a transfer that never completes", func() {
			_, err := brd.Transact(master.Op{Addr: 0x0001}, 1)

			Expect(err).To(MatchError(wishbone.ErrNoGrant))
		})
	})

	Context("with bank-select addressing", func() {
		BeforeEach(func() {
			cfg := testConfig()
			cfg.Addressing = addrdec.BankSelectAddressing
			build(cfg)
			start()
		})

		It("should route tagged accesses through BANK_SEL", func() {
			Expect(brd.Write(addrdec.AddrBankSel, 1, budget)).To(Succeed())
			Expect(brd.BankSel.Value()).To(Equal(uint16(1)))

			_, err := brd.Transact(master.Op{
				Write: true,
				Addr:  0x0200,
				Data:  0x4321,
				TGA:   true,
			}, budget)
			Expect(err).NotTo(HaveOccurred())
			Expect(log.last().Provider).To(Equal(addrdec.SDRAM))
			Expect(brd.SDRAM.Chip.Peek(0x010200)).To(Equal(uint16(0x4321)))

			brd.ROM.Poke(0x8200, 0x9999)
			r, err := brd.Transact(master.Op{Addr: 0x8200, TGA: true}, budget)
			Expect(err).NotTo(HaveOccurred())
			Expect(log.last().Provider).To(Equal(addrdec.ROM))
			Expect(r.Data).To(Equal(uint16(0x9999)))
		})

		It("should reach the registers with tagged accesses in any bank", func() {
			Expect(brd.Write(addrdec.AddrBankSel, 2, budget)).To(Succeed())

			_, err := brd.Transact(master.Op{
				Write: true,
				Addr:  addrdec.AddrGPO,
				Data:  0x00A5,
				TGA:   true,
			}, budget)
			Expect(err).NotTo(HaveOccurred())
			Expect(log.last().Provider).To(Equal(addrdec.GPO))
			Expect(brd.GPO.Value()).To(Equal(uint16(0x00A5)))

			_, err = brd.Transact(master.Op{
				Write: true,
				Addr:  addrdec.AddrBankSel,
				Data:  0,
				TGA:   true,
			}, budget)
			Expect(err).NotTo(HaveOccurred())
			Expect(log.last().Provider).To(Equal(addrdec.BankSel))
			Expect(brd.BankSel.Value()).To(BeZero())
			Expect(brd.SDRAM.Chip.Peek(0x027FFC)).To(BeZero())
		})

		It("should keep untagged accesses in the base window", func() {
			Expect(brd.Write(addrdec.AddrBankSel, 1, budget)).To(Succeed())
			Expect(brd.Write(0x0200, 0x1111, budget)).To(Succeed())

			Expect(log.last().Provider).To(Equal(addrdec.RAM))
			Expect(brd.RAM.Peek(0x0200)).To(Equal(uint16(0x1111)))
		})
	})
})
