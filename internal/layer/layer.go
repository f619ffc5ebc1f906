// Package layer provides the dense layer used by the digit network.
package layer

import (
	"fmt"
	"math/rand"

	"github.com/FlavioCFOliveira/digitnet/internal/activations"
)

// Layer is one layer of a fully connected network.
//
// Node values and weights are stored as flat slices (structure-of-arrays).
// The weight matrix is row-major with shape [size, prev.size]: the weight
// from previous node w into node n is at weights[n*prevSize+w]. The input
// layer has no weights and no previous layer.
type Layer struct {
	size    int
	values  []float32
	weights []float32

	// dy is scratch space for backpropagation; it is zero outside a training step.
	dy []float32

	// prev is read-only: only its values and size are used.
	prev *Layer
}

// Node is a read-only view of one node: its value and incoming weight row.
type Node struct {
	value   float32
	weights []float32
}

// Value returns the node's current activated value.
func (n Node) Value() float32 { return n.value }

// Weights returns the node's incoming weights (nil for input nodes).
func (n Node) Weights() []float32 { return n.weights }

// NewInput creates an input layer with size nodes and no weights.
func NewInput(size int) *Layer {
	return &Layer{
		size:   size,
		values: make([]float32, size),
		dy:     make([]float32, size),
	}
}

// NewDense creates a layer with size nodes fully connected to prev.
// Every weight is drawn as (U(0,1) - 0.5) / size / 1000, which keeps the
// initial activations close to zero and shrinks with layer width.
func NewDense(size int, prev *Layer, rng *rand.Rand) *Layer {
	l := newConnected(size, prev)
	for i := range l.weights {
		l.weights[i] = float32((rng.Float64() - 0.5) / float64(size) / 1000)
	}
	return l
}

// NewZeroDense creates a connected layer whose weights are all zero.
// Used when weights are restored from a snapshot or set explicitly.
func NewZeroDense(size int, prev *Layer) *Layer {
	return newConnected(size, prev)
}

func newConnected(size int, prev *Layer) *Layer {
	return &Layer{
		size:    size,
		values:  make([]float32, size),
		weights: make([]float32, size*prev.size),
		dy:      make([]float32, size),
		prev:    prev,
	}
}

// Size returns the node count.
func (l *Layer) Size() int { return l.size }

// PrevSize returns the node count of the previous layer, or 0 for the input layer.
func (l *Layer) PrevSize() int {
	if l.prev == nil {
		return 0
	}
	return l.prev.size
}

// HasWeights reports whether the layer is connected to a previous layer.
func (l *Layer) HasWeights() bool { return l.prev != nil }

// Values returns a copy of the node values.
func (l *Layer) Values() []float32 {
	out := make([]float32, l.size)
	copy(out, l.values)
	return out
}

// Value returns the value of node n.
func (l *Layer) Value(n int) float32 { return l.values[n] }

// Node returns a view of node n.
func (l *Layer) Node(n int) Node {
	node := Node{value: l.values[n]}
	if l.prev != nil {
		in := l.prev.size
		node.weights = l.weights[n*in : (n+1)*in : (n+1)*in]
	}
	return node
}

// SetValues copies x into the node values. len(x) must equal Size.
func (l *Layer) SetValues(x []float32) {
	copy(l.values, x)
}

// Weights returns the weight matrix directly (row-major, aliased).
func (l *Layer) Weights() []float32 { return l.weights }

// Weight gets a single weight at (row, col).
func (l *Layer) Weight(row, col int) float32 {
	return l.weights[row*l.prev.size+col]
}

// SetWeight sets a single weight at (row, col).
func (l *Layer) SetWeight(row, col int, val float32) {
	l.weights[row*l.prev.size+col] = val
}

// SetWeights replaces the whole weight matrix.
func (l *Layer) SetWeights(w []float32) error {
	if len(w) != len(l.weights) {
		return fmt.Errorf("weight count %d, want %d", len(w), len(l.weights))
	}
	copy(l.weights, w)
	return nil
}

// Gradient returns the dy buffer directly (aliased).
func (l *Layer) Gradient() []float32 { return l.dy }

// Forward recomputes every node value as act(dot(prev.values, row n)).
func (l *Layer) Forward(act activations.Activation) {
	in := l.prev.size
	prev := l.prev.values
	for n := 0; n < l.size; n++ {
		row := l.weights[n*in : (n+1)*in]
		var sum float32
		for w, pv := range prev {
			sum += pv * row[w]
		}
		l.values[n] = act.Activate(sum)
	}
}

// Backward turns the accumulated error in dy into local deltas, adds each
// node's contribution to prevDy using the weight before it is updated, and
// then moves the weight by rate * delta * prevValue.
//
// prevDy must be the previous layer's dy buffer.
func (l *Layer) Backward(act activations.Activation, rate float32, prevDy []float32) {
	in := l.prev.size
	prev := l.prev.values
	for n := 0; n < l.size; n++ {
		l.dy[n] *= act.Derivative(l.values[n])
		d := l.dy[n]
		row := l.weights[n*in : (n+1)*in]
		for w := range row {
			prevDy[w] += d * row[w]
			row[w] += rate * d * prev[w]
		}
	}
}

// FlushDy zeroes the dy buffer.
func (l *Layer) FlushDy() {
	for i := range l.dy {
		l.dy[i] = 0
	}
}
