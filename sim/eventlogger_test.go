package sim

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Loggers", func() {
	var (
		buf    *bytes.Buffer
		engine *SerialEngine
		clock  *Clock
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		engine = NewSerialEngine()
		clock = NewClock("Board.Clock", engine, 50*MHz)
	})

	It("should print clock edges", func() {
		clock.AcceptHook(NewEdgeLogger(log.New(buf, "", 0)))

		clock.SetReset(true)
		Expect(clock.Step()).To(Succeed())
		clock.SetReset(false)
		Expect(clock.Step()).To(Succeed())

		Expect(buf.String()).To(Equal(
			"Board.Clock edge 1 reset=true\n" +
				"Board.Clock edge 2 reset=false\n"))
	})

	It("should print the events handled by the engine", func() {
		engine.AcceptHook(NewEventLogger(log.New(buf, "", 0)))

		Expect(clock.RunCycles(2)).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("sim.TickEvent -> Board.Clock"))
		Expect(bytes.Count(buf.Bytes(), []byte("\n"))).To(Equal(2))
	})
})
