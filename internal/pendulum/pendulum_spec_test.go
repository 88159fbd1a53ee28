package pendulum_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pendsim/internal/pendulum"
)

var _ = Describe("Pendulum", func() {
	var p *pendulum.Pendulum

	BeforeEach(func() {
		var err error
		p, err = pendulum.New(pendulum.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Advance", func() {
		It("overwrites the previous accelerations instead of reading them", func() {
			p.Acc1, p.Acc2 = 1e6, -1e6
			p.Advance()

			Expect(p.Acc1).To(BeNumerically("~", -0.001, 1e-12))
			Expect(p.Acc2).To(BeNumerically("~", 0, 1e-12))
		})

		It("leaves parameters untouched", func() {
			before := p.Params()
			for i := 0; i < 1000; i++ {
				p.Advance()
			}
			Expect(p.Params()).To(Equal(before))
		})

		It("does not wrap angles", func() {
			cfg := pendulum.DefaultConfig()
			cfg.V2 = 0.5
			fast, err := pendulum.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 200; i++ {
				fast.Advance()
			}
			Expect(math.Abs(fast.A2)).To(BeNumerically(">", 2*math.Pi))
		})

		It("keeps the 10k-tick reference run finite", func() {
			for i := 0; i < 10000; i++ {
				p.Advance()
			}
			Expect(p.IsFinite()).To(BeTrue())
			Expect(p.Tick()).To(Equal(uint64(10000)))
		})
	})

	Describe("Snapshot", func() {
		DescribeTable("derives positions from the angles",
			func(a1, a2 float64) {
				cfg := pendulum.DefaultConfig()
				cfg.A1, cfg.A2 = a1, a2
				q, err := pendulum.New(cfg)
				Expect(err).NotTo(HaveOccurred())

				s := q.Snapshot()
				Expect(s.Bob1.X).To(BeNumerically("~", 100*math.Sin(a1), 1e-9))
				Expect(s.Bob1.Y).To(BeNumerically("~", 100*math.Cos(a1), 1e-9))
				Expect(s.Bob2.X).To(BeNumerically("~", s.Bob1.X+100*math.Sin(a2), 1e-9))
				Expect(s.Bob2.Y).To(BeNumerically("~", s.Bob1.Y+100*math.Cos(a2), 1e-9))
			},
			Entry("hanging", 0.0, 0.0),
			Entry("horizontal", math.Pi/2, math.Pi/2),
			Entry("inverted", math.Pi, math.Pi),
			Entry("folded", 1.0, -2.0),
			Entry("multiple turns", 7*math.Pi, -5.5),
		)
	})

	Describe("degenerate parameters", func() {
		It("propagates NaN without panicking", func() {
			cfg := pendulum.DefaultConfig()
			cfg.M1 = 0
			q := pendulum.NewUnchecked(cfg)

			Expect(func() {
				for i := 0; i < 50; i++ {
					q.Advance()
					_ = q.Snapshot()
				}
			}).NotTo(Panic())
			Expect(q.IsFinite()).To(BeFalse())
			Expect(math.IsNaN(q.A1)).To(BeTrue())
		})

		It("is rejected by the checked constructor", func() {
			cfg := pendulum.DefaultConfig()
			cfg.M2 = 0
			_, err := pendulum.New(cfg)
			Expect(err).To(MatchError(pendulum.ErrInvalidParams))
		})
	})

	Describe("System", func() {
		It("reports the same energy as the pendulum", func() {
			for i := 0; i < 10; i++ {
				p.Advance()
			}
			sys := pendulum.NewSystem(p.Params())
			Expect(sys.Energy(p.Vector())).To(Equal(p.Energy()))
		})

		It("round-trips through StateConfig", func() {
			p.Advance()
			cfg := pendulum.StateConfig(p.Params(), p.Vector())
			Expect(cfg.A1).To(Equal(p.A1))
			Expect(cfg.V2).To(Equal(p.V2))
			Expect(cfg.Params).To(Equal(p.Params()))
		})
	})
})
