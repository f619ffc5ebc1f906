// Package dataset loads digit samples for the network: MNIST IDX files,
// PNG images and raw bitmaps, all normalized to [0, 1].
package dataset

import (
	"errors"
	"math/rand"
)

// ErrFormat is returned when an input file is malformed.
var ErrFormat = errors.New("invalid dataset format")

// Image dimensions expected by the digit network.
const (
	ImageWidth  = 28
	ImageHeight = 28
	ImageSize   = ImageWidth * ImageHeight
)

// Sample is one normalized feature vector with its label.
type Sample struct {
	Input []float32
	Label int
	Desc  string
}

// Pick returns a uniformly random sample from set.
func Pick(set []Sample, rng *rand.Rand) Sample {
	return set[rng.Intn(len(set))]
}

// TwoClass returns n samples of a separable two-feature set. Even indices
// are class 0 with features (a, 0), odd indices class 1 with (0, a), where
// a cycles through 0.8, 0.85, ..., 1.0 and is shifted by jitter.
func TwoClass(n int, jitter float32) []Sample {
	out := make([]Sample, n)
	for i := range out {
		a := 0.8 + 0.05*float32((i/2)%5) + jitter
		s := Sample{Input: make([]float32, 2), Label: i % 2}
		s.Input[s.Label] = a
		out[i] = s
	}
	return out
}
