// Package progress provides a write-only progress/visualization sink for a
// running reachability check. The plotting half builds on gonum.org/v1/plot
// scatter construction, and the reporting half favors small value-type
// collaborators over deep interface hierarchies. A Sink must never be able
// to fail the computation it observes: every method here is fire-and-forget.
package progress

import (
	"fmt"
	"image/color"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Sink receives progress notifications from a running check_blocks loop. It
// is the caller's responsibility to keep it cheap: Update is called once per
// step, on the hot path.
type Sink interface {
	// Start announces the beginning of a run of `total` steps. minInterval
	// is a hint: implementations that throttle their own output (e.g. a
	// terminal bar) should not update more often than this.
	Start(total int, minInterval time.Duration, label string)
	// Update reports that step k has completed.
	Update(k int)
	// Finish announces completion, with the violation index CheckBlocks
	// returned (0 if none).
	Finish(violationIndex int)
}

// NoOp is a Sink that discards every notification. It is the default used
// when a caller passes a nil Sink.
type NoOp struct{}

func (NoOp) Start(total int, minInterval time.Duration, label string) {}
func (NoOp) Update(k int)                                             {}
func (NoOp) Finish(violationIndex int)                                {}

// orNoOp returns s, or NoOp{} if s is nil, so callers never need a nil check
// on the hot path.
func orNoOp(s Sink) Sink {
	if s == nil {
		return NoOp{}
	}
	return s
}

// Notify is a convenience wrapper: it calls Start, invokes step for k = 1..N
// in order (step returns false to stop early, matching an eager violation),
// and always calls Finish with whatever violation index step last reported.
func Notify(s Sink, total int, minInterval time.Duration, label string, step func(k int) (violationIndex int, cont bool)) int {
	s = orNoOp(s)
	s.Start(total, minInterval, label)
	violation := 0
	for k := 1; k <= total; k++ {
		v, cont := step(k)
		violation = v
		s.Update(k)
		if !cont {
			break
		}
	}
	s.Finish(violation)
	return violation
}

// Ticker is a Sink that throttles terminal output to at most once per
// minInterval, printing "label: k/total" lines through a caller-supplied
// printf function (fmt.Printf by default), reporting plainly rather than
// pulling in a terminal UI dependency for something this small. The final
// step (k == total) is always printed, whatever the interval.
type Ticker struct {
	total    int
	label    string
	interval time.Duration
	last     time.Time
	now      func() time.Time
	printf   func(format string, args ...interface{})
}

// NewTicker creates a Ticker. now defaults to time.Now if nil; printf
// defaults to fmt.Printf if nil. Both are overridable for testing, since the
// engine must never depend on wall-clock time to decide what it reports.
func NewTicker(now func() time.Time, printf func(format string, args ...interface{})) *Ticker {
	if now == nil {
		now = time.Now
	}
	if printf == nil {
		printf = fmt.Printf
	}
	return &Ticker{now: now, printf: printf}
}

func (t *Ticker) Start(total int, minInterval time.Duration, label string) {
	t.total = total
	t.label = label
	t.interval = minInterval
	t.last = time.Time{}
}

func (t *Ticker) Update(k int) {
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.interval && k != t.total {
		return
	}
	t.last = now
	t.printf("%s: %d/%d\n", t.label, k, t.total)
}

func (t *Ticker) Finish(violationIndex int) {
	if violationIndex == 0 {
		t.printf("%s: safe over %d steps\n", t.label, t.total)
		return
	}
	t.printf("%s: violated at step %d\n", t.label, violationIndex)
}

// Trace accumulates, for a single queried block, the support value of its
// reach set in a fixed direction at every step, so it can be rendered after
// the run completes: a plain (step, value) series built incrementally
// instead of assembled as a finished *mat.Dense up front.
type Trace struct {
	Label  string
	Points plotter.XYs
}

// NewTrace creates an empty trace.
func NewTrace(label string) *Trace {
	return &Trace{Label: label}
}

// Record appends the pair (step, value) to the trace. Callers drive this
// directly from an OverApproxInputs or a custom Property closure; Trace
// itself implements no reach.* interface so it carries no dependency on the
// reach package.
func (tr *Trace) Record(step int, value float64) {
	tr.Points = append(tr.Points, plotter.XY{X: float64(step), Y: value})
}

// Plot renders one or more traces onto a single gonum plot: one scatter
// series per trace, a top legend, and distinct colors assigned in order.
// It returns an error for a nil/empty trace list or a failure building the
// underlying scatter plotter.
func Plot(title string, traces ...*Trace) (*plot.Plot, error) {
	if len(traces) == 0 {
		return nil, fmt.Errorf("progress: no traces supplied")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "step"
	p.Y.Label.Text = "support value"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	palette := []color.RGBA{
		{R: 255, B: 128, A: 255},
		{G: 255, A: 255},
		{B: 255, A: 255},
		{R: 169, G: 169, B: 169, A: 255},
	}

	for i, tr := range traces {
		if len(tr.Points) == 0 {
			return nil, fmt.Errorf("progress: trace %q has no points", tr.Label)
		}
		scatter, err := plotter.NewScatter(tr.Points)
		if err != nil {
			return nil, fmt.Errorf("progress: failed to build scatter for %q: %w", tr.Label, err)
		}
		scatter.GlyphStyle.Color = palette[i%len(palette)]
		scatter.GlyphStyle.Radius = vg.Points(2)
		p.Add(scatter)
		p.Legend.Add(tr.Label, scatter)
	}

	return p, nil
}
