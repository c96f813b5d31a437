package director_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pipeflow/internal/config"
	"github.com/san-kum/pipeflow/internal/director"
	"github.com/san-kum/pipeflow/internal/metrics"
	"github.com/san-kum/pipeflow/internal/pipeline"
	"github.com/san-kum/pipeflow/internal/render"
)

type failingSink struct {
	after  int
	seen   int
	closed bool
}

func (s *failingSink) OnFrame(*pipeline.Frame) error {
	s.seen++
	if s.seen > s.after {
		return errors.New("disk full")
	}
	return nil
}

func (s *failingSink) Close() error {
	s.closed = true
	return nil
}

var _ = Describe("Director", func() {
	var (
		cfg config.Config
		rec *render.Recorder
	)

	BeforeEach(func() {
		cfg = config.Default()
		rec = render.NewRecorder()
	})

	It("rejects an invalid config", func() {
		cfg.Stages = cfg.Stages[:2]
		_, err := director.New(cfg)
		Expect(err).To(MatchError(config.ErrInvalidConfig))
	})

	Context("a full default run", func() {
		var (
			d   *director.Director
			res *director.Result
		)

		BeforeEach(func() {
			var err error
			d, err = director.New(cfg, director.WithSinks(rec), director.WithMetrics(metrics.Defaults()...))
			Expect(err).NotTo(HaveOccurred())
			res, err = d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
		})

		It("makes the same decisions as the dry-run plan", func() {
			Expect(res.Decisions).To(Equal(director.Plan(cfg)))
		})

		It("ends with the improved capacities", func() {
			Expect(res.Final).To(Equal([]int{60, 50, 61, 51, 51}))
			Expect(res.Baseline).To(Equal([]int{60, 50, 40, 30, 30}))
			Expect(d.Pipeline().Baseline()).To(Equal([]int{60, 50, 40, 30, 30}))
		})

		It("emits frames in increasing time", func() {
			Expect(rec.Frames).To(HaveLen(res.Frames))
			Expect(res.Times).To(HaveLen(res.Frames))
			for i := 1; i < len(rec.Frames); i++ {
				Expect(rec.Frames[i].Time).To(BeNumerically(">", rec.Frames[i-1].Time))
				Expect(rec.Frames[i].Index).To(Equal(i))
			}
			Expect(res.Duration).To(BeNumerically("~", float64(res.Frames)/float64(cfg.FPS), 1e-9))
		})

		It("finishes each transition before the next step decides", func() {
			for _, f := range rec.Frames {
				switch f.Step {
				case 2:
					Expect(f.Stages[3].Value).To(Equal(51))
				case 3:
					Expect(f.Stages[3].Value).To(Equal(51))
					Expect(f.Stages[4].Value).To(Equal(51))
				}
			}
		})

		It("grows the bottleneck only while it is highlighted", func() {
			for _, f := range rec.Frames {
				if f.Step != 1 {
					continue
				}
				s := f.Stages[3]
				if s.Capacity > 30 && s.Capacity < 51 {
					Expect(s.Highlight).To(Equal(pipeline.Bottleneck))
					Expect(f.Connectors[2].Highlight).To(Equal(pipeline.Bottleneck))
					Expect(f.Connectors[3].Highlight).To(Equal(pipeline.Bottleneck))
				}
			}
		})

		It("pulses past the final thickness before settling", func() {
			dec := res.Decisions[0]
			peak := 0.0
			for _, f := range rec.Frames {
				if f.Step == 1 && f.Stages[3].Rect.H > peak {
					peak = f.Stages[3].Rect.H
				}
			}
			Expect(peak).To(BeNumerically("~", dec.OvershootThickness, 1e-9))
			Expect(d.Pipeline().Stages[3].Thickness).To(Equal(dec.FinalThickness))
		})

		It("leaves the last improved stage green with the end card shown", func() {
			last := rec.Last()
			Expect(last.Stages[2].Highlight).To(Equal(pipeline.Improved))
			Expect(last.Stages[2].Fill.Gradient).To(BeTrue())
			Expect(last.Stages[2].Fill.Color).To(Equal(d.Pipeline().Colors().Improved))
			Expect(last.Stages[0].Highlight).To(Equal(pipeline.Neutral))
			Expect(last.Overlays).To(HaveLen(1))
			Expect(last.Overlays[0].Content).To(Equal("2-month Growth Plan Complete"))
			Expect(last.Overlays[0].Opacity).To(Equal(1.0))
		})

		It("starts the intro with every stage hidden", func() {
			first := rec.Frames[0]
			Expect(first.Stages[4].Opacity).To(BeNumerically("<", 1))
			Expect(rec.Last().Stages[4].Opacity).To(Equal(1.0))
		})

		It("records throughput metrics", func() {
			Expect(res.Metrics).To(HaveKeyWithValue("throughput", 50.0))
			Expect(res.Metrics).To(HaveKeyWithValue("throughput_gain", 20.0))
			Expect(res.Metrics).To(HaveKeyWithValue("bottleneck_shifts", 3.0))
		})

		It("refuses to run twice", func() {
			_, err := d.Run(context.Background())
			Expect(err).To(HaveOccurred())
		})
	})

	It("stops on cancellation and still closes sinks", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		sink := &failingSink{after: 1 << 30}
		d, err := director.New(cfg, director.WithSinks(sink))
		Expect(err).NotTo(HaveOccurred())

		_, err = d.Run(ctx)
		Expect(err).To(MatchError(pipeline.ErrCanceled))
		Expect(sink.closed).To(BeTrue())
		Expect(sink.seen).To(BeZero())
	})

	It("reports the frame a sink failed on", func() {
		sink := &failingSink{after: 5}
		d, err := director.New(cfg, director.WithSinks(sink))
		Expect(err).NotTo(HaveOccurred())

		res, err := d.Run(context.Background())
		var fe *pipeline.FrameError
		Expect(errors.As(err, &fe)).To(BeTrue())
		Expect(fe.Frame).To(Equal(5))
		Expect(res.Frames).To(Equal(6))
	})

	It("applies preset motion", func() {
		cfg = config.GetPreset("subtle").Apply(cfg)
		d, err := director.New(cfg, director.WithSinks(rec))
		Expect(err).NotTo(HaveOccurred())
		res, err := d.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Decisions[0].OvershootThickness).To(BeNumerically("~", res.Decisions[0].FinalThickness*1.4, 1e-9))
	})

	It("rejects a zero-length phase before emitting any frame", func() {
		cfg.Timing.Pulse = 0
		sink := &failingSink{after: 1 << 30}
		_, err := director.New(cfg, director.WithSinks(sink))
		Expect(err).To(MatchError(config.ErrInvalidConfig))
		Expect(sink.seen).To(BeZero())
	})

	It("rejects motion that would produce a negative overshoot", func() {
		cfg.Motion.OvershootFactor = -1
		cfg.Motion.VisualClampFactor = 0
		_, err := director.New(cfg)
		Expect(err).To(MatchError(config.ErrInvalidConfig))
	})

	It("rejects an unknown easing name", func() {
		cfg.Timing.PulseEasing = "bounce"
		_, err := director.New(cfg)
		Expect(err).To(MatchError(config.ErrInvalidConfig))
	})

	It("plays configured easings and still lands on target", func() {
		cfg.Timing.PulseEasing = "linear"
		cfg.Timing.SettleEasing = "smooth"
		d, err := director.New(cfg, director.WithSinks(rec))
		Expect(err).NotTo(HaveOccurred())
		res, err := d.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Final).To(Equal([]int{60, 50, 61, 51, 51}))
	})
})
