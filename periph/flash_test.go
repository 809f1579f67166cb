package periph

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/spikeputor/wishbone"
)

var _ = Describe("Flash", func() {
	var (
		flash *Flash
		t     *transferer
	)

	BeforeEach(func() {
		flash = NewFlash("Flash", 64, 4)
		_, err := flash.Load(bytes.NewReader(
			[]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x03}))
		Expect(err).NotTo(HaveOccurred())

		t = newTransferer(flash)
	})

	It("should answer reads after its latency", func() {
		data, edges := t.do(wishbone.Signals{Addr: 0x7FF4})

		Expect(data).To(Equal(uint16(0x0001)))
		Expect(edges).To(Equal(4))
	})

	It("should advance the pointer on every read", func() {
		Expect(t.read(0x7FF4)).To(Equal(uint16(1)))
		Expect(t.read(0x7FF4)).To(Equal(uint16(2)))
		Expect(t.read(0x7FF4)).To(Equal(uint16(3)))
		Expect(flash.Pointer()).To(Equal(uint32(3)))
	})

	It("should set the pointer on write", func() {
		_, edges := t.do(wishbone.Signals{We: true, Addr: 0x7FF4, Data: 2})

		Expect(edges).To(Equal(1))
		Expect(t.read(0x7FF4)).To(Equal(uint16(3)))
	})

	It("should keep the pointer when a read is abandoned", func() {
		t.port.s = wishbone.Signals{Cyc: true, Stb: true, Addr: 0x7FF4}
		t.step()
		t.step()
		t.port.s = wishbone.Signals{}
		t.step()
		t.step()
		t.step()

		Expect(flash.Response().Ack).To(BeFalse())
		Expect(flash.Pointer()).To(BeZero())
		Expect(t.read(0x7FF4)).To(Equal(uint16(1)))
	})

	It("should load images from files", func() {
		path := filepath.Join(GinkgoT().TempDir(), "image.bin")
		Expect(os.WriteFile(path, []byte{0xBE, 0xEF}, 0o600)).To(Succeed())

		n, err := flash.LoadFile(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
		Expect(t.read(0x7FF4)).To(Equal(uint16(0xBEEF)))
	})

	It("should answer like a register with latency 1", func() {
		fast := NewFlash("Flash", 4, 1)
		ft := newTransferer(fast)

		_, edges := ft.do(wishbone.Signals{Addr: 0x7FF4})

		Expect(edges).To(Equal(1))
	})
})
