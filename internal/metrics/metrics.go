// Package metrics scores network predictions.
package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/FlavioCFOliveira/digitnet/internal/dataset"
	"github.com/FlavioCFOliveira/digitnet/internal/encoding"
	"github.com/FlavioCFOliveira/digitnet/internal/loss"
)

// Predictor runs a forward pass.
type Predictor interface {
	Pass(input []float32) ([]float32, error)
}

// Window tracks whether each of the most recent predictions was correct.
type Window struct {
	hits  []bool
	next  int
	count int
}

// NewWindow creates a window over the last size predictions.
func NewWindow(size int) *Window {
	return &Window{hits: make([]bool, size)}
}

// Add records one prediction.
func (w *Window) Add(correct bool) {
	w.hits[w.next] = correct
	w.next = (w.next + 1) % len(w.hits)
	if w.count < len(w.hits) {
		w.count++
	}
}

// Len returns how many predictions the window currently holds.
func (w *Window) Len() int { return w.count }

// Accuracy returns the fraction of correct predictions in the window.
func (w *Window) Accuracy() float64 {
	if w.count == 0 {
		return 0
	}
	hits := 0
	for i := 0; i < w.count; i++ {
		if w.hits[i] {
			hits++
		}
	}
	return float64(hits) / float64(w.count)
}

// Report summarizes a predictor over a sample set.
type Report struct {
	Samples  int
	Correct  int
	Accuracy float64
	MeanMSE  float64
	StdMSE   float64
}

// Evaluate passes every sample through p. Targets are one-hot vectors of
// the output length; samples with a negative label count toward neither
// accuracy nor MSE.
func Evaluate(p Predictor, samples []dataset.Sample) (Report, error) {
	var r Report
	errs := make([]float64, 0, len(samples))
	for _, s := range samples {
		out, err := p.Pass(s.Input)
		if err != nil {
			return Report{}, err
		}
		if s.Label < 0 || s.Label >= len(out) {
			continue
		}
		r.Samples++
		if encoding.FloatsToDigit(out) == s.Label {
			r.Correct++
		}
		errs = append(errs, float64(loss.MSE{}.Forward(out, encoding.OneHot(s.Label, len(out)))))
	}
	if r.Samples == 0 {
		return r, nil
	}
	r.Accuracy = float64(r.Correct) / float64(r.Samples)
	if len(errs) == 1 {
		r.MeanMSE = errs[0]
		return r, nil
	}
	r.MeanMSE, r.StdMSE = stat.MeanStdDev(errs, nil)
	return r, nil
}
