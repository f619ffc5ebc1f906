package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/digitnet/internal/dataset"
)

// echo returns its input as the prediction.
type echo struct{}

func (echo) Pass(input []float32) ([]float32, error) { return input, nil }

type failing struct{}

func (failing) Pass([]float32) ([]float32, error) { return nil, errors.New("boom") }

func TestWindow(t *testing.T) {
	w := NewWindow(4)
	assert.Zero(t, w.Accuracy())

	w.Add(true)
	w.Add(false)
	assert.Equal(t, 2, w.Len())
	assert.InDelta(t, 0.5, w.Accuracy(), 1e-12)

	for i := 0; i < 4; i++ {
		w.Add(true)
	}
	assert.Equal(t, 4, w.Len())
	assert.InDelta(t, 1.0, w.Accuracy(), 1e-12)

	w.Add(false)
	assert.InDelta(t, 0.75, w.Accuracy(), 1e-12)
}

func TestEvaluate(t *testing.T) {
	samples := []dataset.Sample{
		{Input: []float32{1, 0}, Label: 0},     // correct, mse 0
		{Input: []float32{1, 0}, Label: 1},     // wrong, mse 1
		{Input: []float32{0.5, 0.5}, Label: 0}, // tie -> 0, mse 0.25
		{Input: []float32{0, 1}, Label: -1},    // unlabeled
	}

	r, err := Evaluate(echo{}, samples)
	require.NoError(t, err)

	assert.Equal(t, 3, r.Samples)
	assert.Equal(t, 2, r.Correct)
	assert.InDelta(t, 2.0/3.0, r.Accuracy, 1e-9)
	assert.InDelta(t, 1.25/3.0, r.MeanMSE, 1e-6)
	assert.Greater(t, r.StdMSE, 0.0)
}

func TestEvaluateEmpty(t *testing.T) {
	r, err := Evaluate(echo{}, nil)
	require.NoError(t, err)
	assert.Zero(t, r.Samples)
}

func TestEvaluatePropagatesErrors(t *testing.T) {
	_, err := Evaluate(failing{}, dataset.TwoClass(2, 0))
	assert.EqualError(t, err, "boom")
}
