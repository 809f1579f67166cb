package tracing

import (
	"context"
	"database/sql"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/spikeputor/datarecording"
	"github.com/sarchlab/spikeputor/sim"
)

var _ = Describe("SummarizeTrace", func() {
	var (
		db      *sql.DB
		counter *fixedCounter
		tracer  *DBTracer
	)

	record := func(id, location, what string, start, end uint64) {
		counter.cycle = start
		tracer.StartTask(Task{
			ID: id, Kind: "req_out", What: what, Location: location,
		})

		counter.cycle = end
		tracer.EndTask(Task{ID: id})
	}

	BeforeEach(func() {
		var err error
		db, err = sql.Open("sqlite3", ":memory:")
		Expect(err).NotTo(HaveOccurred())
		db.SetMaxOpenConns(1)

		counter = &fixedCounter{}
		tracer = NewDBTracer(counter, 1*sim.GHz, datarecording.NewWithDB(db))
	})

	AfterEach(func() {
		db.Close()
	})

	It("should group tasks by location, kind and what", func() {
		record("1", "Board.CPU", "read", 1, 4)
		record("2", "Board.Loader", "write", 2, 5)
		record("3", "Board.CPU", "read", 6, 13)
		record("4", "Board.CPU", "write", 14, 17)
		tracer.Terminate()

		summaries, err := SummarizeTrace(context.Background(),
			datarecording.NewReaderWithDB(db))

		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).To(HaveLen(3))

		Expect(summaries[0].Location).To(Equal("Board.CPU"))
		Expect(summaries[0].What).To(Equal("read"))
		Expect(summaries[0].Count).To(Equal(2))
		Expect(summaries[0].TotalCycles).To(Equal(uint64(10)))
		Expect(summaries[0].MaxCycles).To(Equal(uint64(7)))
		Expect(summaries[0].AverageCycles()).To(BeNumerically("~", 5.0))

		Expect(summaries[1].What).To(Equal("write"))
		Expect(summaries[1].Count).To(Equal(1))

		Expect(summaries[2].Location).To(Equal("Board.Loader"))
	})

	It("should return nothing for an empty trace", func() {
		tracer.Terminate()

		summaries, err := SummarizeTrace(context.Background(),
			datarecording.NewReaderWithDB(db))

		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).To(BeEmpty())
	})
})
