package dynamo_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/stockflow/internal/dynamo"
)

var _ = Describe("Model", func() {
	Describe("conservation under explicit Euler", func() {
		DescribeTable("a stock with one constant inflow and one constant outflow",
			func(initial, in, out, dt float64, steps int) {
				m := dynamo.New("bathtub").
					AddStock(dynamo.NewStock("amount", "Amount", initial, "units")).
					AddFlow(dynamo.ConstantFlow("input", "Input", in, "units").To("amount")).
					AddFlow(dynamo.ConstantFlow("output", "Output", out, "units").From("amount")).
					SetTimeStep(dt)

				res, err := m.Simulate(float64(steps) * dt)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.StepsTaken).To(Equal(steps))

				final, ok := res.Final("amount")
				Expect(ok).To(BeTrue())
				Expect(final).To(BeNumerically("~", initial+float64(steps)*dt*(in-out), 1e-9))
			},
			Entry("unit step", 0.0, 2.0, 1.0, 1.0, 5),
			Entry("net drain", 100.0, 1.0, 3.0, 1.0, 10),
			Entry("half step", 5.0, 4.0, 1.0, 0.5, 8),
		)

		It("records the documented trajectory", func() {
			m := dynamo.New("my_model").
				AddStock(dynamo.NewStock("amount", "Amount", 0, "units")).
				AddFlow(dynamo.ConstantFlow("input", "Input", 2, "units").To("amount")).
				AddFlow(dynamo.ConstantFlow("output", "Output", 1, "units").From("amount")).
				SetTimeStep(1)

			res, err := m.Simulate(5)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.TimeSeries).To(Equal([]float64{0, 1, 2, 3, 4, 5}))
			Expect(res.StockValues).To(HaveKeyWithValue("amount", []float64{0, 1, 2, 3, 4, 5}))
		})
	})

	Describe("bound clamping", func() {
		var m *dynamo.Model

		BeforeEach(func() {
			m = dynamo.New("tank").
				AddStock(dynamo.NewStock("tank", "Tank", 10, "l").WithMin(0).WithMax(15)).
				AddFlow(dynamo.ConstantFlow("drain", "Drain", 5, "l/s").From("tank")).
				SetTimeStep(1)
		})

		It("holds the stock at its minimum", func() {
			res, err := m.Simulate(3)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StockValues["tank"]).To(Equal([]float64{10, 5, 0, 0}))
		})

		It("holds the stock at its maximum once refilled", func() {
			_, err := m.Simulate(3)
			Expect(err).NotTo(HaveOccurred())

			m.AddFlow(dynamo.ConstantFlow("fill", "Fill", 10, "l/s").To("tank"))
			res, err := m.Simulate(4)
			Expect(err).NotTo(HaveOccurred())

			final, _ := res.Final("tank")
			Expect(final).To(Equal(15.0))
			for _, v := range res.StockValues["tank"] {
				Expect(v).To(And(BeNumerically(">=", 0), BeNumerically("<=", 15)))
			}
		})
	})

	Describe("missing references", func() {
		It("evaluates a linear rate on a missing input to its intercept", func() {
			f := dynamo.LinearFlow("growth", "Growth Rate", 0.02, 5.0, "missing_stock", "units")
			Expect(f.RateAt(dynamo.NewSystemState())).To(Equal(5.0))
		})

		It("ignores endpoints that name unknown stocks", func() {
			m := dynamo.New("dangling").
				AddStock(dynamo.NewStock("s", "S", 1, "")).
				AddFlow(dynamo.ConstantFlow("leak", "", 1, "").From("ghost").To("phantom"))

			res, err := m.Simulate(3)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StockValues["s"]).To(Equal([]float64{1, 1, 1, 1}))
		})
	})

	Describe("stock arrays", func() {
		It("expands deterministically", func() {
			stocks := dynamo.NewStockArray("mem", "Memory", 3, 0.5, "items").Expand()
			Expect(stocks).To(HaveLen(3))

			ids := make([]string, 0, len(stocks))
			for _, s := range stocks {
				ids = append(ids, s.ID)
				Expect(s.InitialValue).To(Equal(0.5))
			}
			Expect(ids).To(Equal([]string{"mem[0]", "mem[1]", "mem[2]"}))
		})
	})

	Describe("result alignment", func() {
		It("records one value per stock per time point", func() {
			arr := dynamo.NewStockArray("strength", "Memory Strength", 7, 0.5, "strength").WithMin(0).WithMax(1)
			m := dynamo.New("serial_position").AddStockArray(arr).SetTimeStep(0.1)
			for i := 0; i < arr.Size; i++ {
				m.AddFlow(dynamo.LinearFlow(dynamo.ArrayStockID("decay", i), "Decay", 0.1, 0, arr.StockID(i), "").From(arr.StockID(i)))
			}

			res, err := m.Simulate(10)
			Expect(err).NotTo(HaveOccurred())
			for _, id := range res.StockIDs() {
				Expect(res.StockValues[id]).To(HaveLen(len(res.TimeSeries)))
			}
			Expect(res.TimeSeries).To(HaveLen(res.StepsTaken + 1))
		})
	})

	Describe("determinism", func() {
		It("reproduces identical results from identical definitions", func() {
			build := func() *dynamo.Model {
				return dynamo.New("pop").
					AddStock(dynamo.NewStock("population", "Population", 25, "people").WithMin(0)).
					AddFlow(dynamo.LinearFlow("births", "", 0.05, 0, "population", "").To("population")).
					AddFlow(dynamo.LinearFlow("deaths", "", 1.0/60.0, 0, "population", "").From("population"))
			}

			a, err := build().Simulate(50)
			Expect(err).NotTo(HaveOccurred())
			b, err := build().Simulate(50)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.StockValues).To(Equal(b.StockValues))
			Expect(a.TimeSeries).To(Equal(b.TimeSeries))
		})
	})

	Describe("configuration conflicts", func() {
		It("keeps the last definition and reports it through Validate", func() {
			m := dynamo.New("dup").
				AddStock(dynamo.NewStock("s", "old", 9, "")).
				AddStock(dynamo.NewStock("s", "new", 1, ""))

			Expect(m.State().Len()).To(Equal(1))
			Expect(m.Validate()).To(MatchError(dynamo.ErrDuplicateStock))
		})

		It("rejects a non-positive time step before stepping", func() {
			m := dynamo.New("bad").SetTimeStep(0)
			_, err := m.Simulate(1)
			Expect(err).To(MatchError(dynamo.ErrInvalidTimeStep))
		})
	})
})
