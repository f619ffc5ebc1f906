// Package trainer runs the online training and testing loops over a
// sample set, drawing one random sample per step.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/FlavioCFOliveira/digitnet/internal/dataset"
	"github.com/FlavioCFOliveira/digitnet/internal/encoding"
	"github.com/FlavioCFOliveira/digitnet/internal/metrics"
	"github.com/FlavioCFOliveira/digitnet/internal/net"
	"github.com/FlavioCFOliveira/digitnet/internal/opt"
)

// DefaultWindow is the number of recent samples the running accuracy covers.
const DefaultWindow = 100

var (
	// ErrEmptySet is returned when there are no samples to draw from.
	ErrEmptySet = errors.New("no samples loaded")

	// ErrLabel is returned when a sample's label does not fit the output layer.
	ErrLabel = errors.New("label out of range")
)

// Phase names a loop.
type Phase string

const (
	PhaseTrain Phase = "Training"
	PhaseTest  Phase = "Testing"
)

// Progress describes the state after one step.
type Progress struct {
	Phase    Phase
	Step     int
	Steps    int
	Correct  bool
	Accuracy float64
	Rate     float32 // zero while testing
	Network  *net.Network
}

// Result summarizes a finished loop.
type Result struct {
	Phase    Phase
	Steps    int
	Correct  int
	Accuracy float64 // over the final window
	Elapsed  time.Duration
}

// Trainer drives a single network. It is not safe for concurrent use.
type Trainer struct {
	net       *net.Network
	rng       *rand.Rand
	window    int
	callbacks []Callback
}

// New creates a trainer for n drawing samples with rng.
func New(n *net.Network, rng *rand.Rand, callbacks ...Callback) *Trainer {
	return &Trainer{
		net:       n,
		rng:       rng,
		window:    DefaultWindow,
		callbacks: callbacks,
	}
}

// SetWindow changes the running accuracy window size.
func (t *Trainer) SetWindow(size int) {
	if size > 0 {
		t.window = size
	}
}

// Train runs iterations online updates with the given learning rate.
// Cancellation is checked between steps.
func (t *Trainer) Train(ctx context.Context, set []dataset.Sample, iterations int, rate float32) (Result, error) {
	return t.TrainWithScheduler(ctx, set, iterations, opt.NewConstantLR(rate))
}

// TrainWithScheduler runs iterations online updates, taking the learning
// rate of each step from sched. The scheduler sees the running accuracy
// every time the window has been refilled.
func (t *Trainer) TrainWithScheduler(ctx context.Context, set []dataset.Sample, iterations int, sched opt.Scheduler) (Result, error) {
	return t.run(ctx, PhaseTrain, set, iterations, sched, func(s dataset.Sample) ([]float32, error) {
		return t.net.Train(s.Input, encoding.OneHot(s.Label, t.net.OutputSize()), sched.GetLR())
	})
}

// Test runs iterations forward passes without changing weights.
func (t *Trainer) Test(ctx context.Context, set []dataset.Sample, iterations int) (Result, error) {
	return t.run(ctx, PhaseTest, set, iterations, nil, func(s dataset.Sample) ([]float32, error) {
		return t.net.Pass(s.Input)
	})
}

func (t *Trainer) run(ctx context.Context, phase Phase, set []dataset.Sample, iterations int, sched opt.Scheduler, step func(dataset.Sample) ([]float32, error)) (Result, error) {
	if len(set) == 0 {
		return Result{}, ErrEmptySet
	}

	start := time.Now()
	window := metrics.NewWindow(t.window)
	res := Result{Phase: phase}

	for _, cb := range t.callbacks {
		cb.OnBegin(phase, t.net)
	}

	var err error
	for i := 0; i < iterations; i++ {
		if err = ctx.Err(); err != nil {
			break
		}

		s := dataset.Pick(set, t.rng)
		if s.Label < 0 || s.Label >= t.net.OutputSize() {
			err = fmt.Errorf("%w: sample %q has label %d", ErrLabel, s.Desc, s.Label)
			break
		}

		var rate float32
		if sched != nil {
			rate = sched.GetLR()
		}
		var out []float32
		if out, err = step(s); err != nil {
			break
		}

		correct := encoding.FloatsToDigit(out) == s.Label
		window.Add(correct)
		res.Steps++
		if correct {
			res.Correct++
		}

		p := Progress{
			Phase:    phase,
			Step:     i,
			Steps:    iterations,
			Correct:  correct,
			Accuracy: window.Accuracy(),
			Rate:     rate,
			Network:  t.net,
		}
		if sched != nil {
			sched.Step()
			if (i+1)%t.window == 0 {
				sched.StepWithAccuracy(p.Accuracy)
			}
		}
		for _, cb := range t.callbacks {
			cb.OnStep(p)
		}
	}

	res.Accuracy = window.Accuracy()
	res.Elapsed = time.Since(start)
	for _, cb := range t.callbacks {
		cb.OnEnd(res, t.net)
	}
	return res, err
}
