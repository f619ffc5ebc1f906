// Package net provides the digit classification network: construction,
// forward propagation, single-sample backpropagation and snapshots.
//
// A Network is not safe for concurrent use. Pass and Train overwrite layer
// values and gradient buffers in place, so callers must serialize access.
package net

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/FlavioCFOliveira/digitnet/internal/activations"
	"github.com/FlavioCFOliveira/digitnet/internal/layer"
)

// Shape of the networks accepted by Load.
const (
	DigitInputSize  = 28 * 28
	DigitOutputSize = 10
)

// Network is an ordered sequence of dense ReLU layers.
type Network struct {
	layers     []*layer.Layer
	act        activations.Activation
	inputSize  int
	outputSize int
	hiddenSize int
	name       string
	rng        *rand.Rand
}

// Option configures a Network at construction.
type Option func(*Network)

// WithRand sets the generator used to initialize weights.
func WithRand(rng *rand.Rand) Option {
	return func(n *Network) { n.rng = rng }
}

// WithSeed initializes weights from a generator seeded with seed.
func WithSeed(seed int64) Option {
	return func(n *Network) { n.rng = rand.New(rand.NewSource(seed)) }
}

// WithName sets the display name.
func WithName(name string) Option {
	return func(n *Network) { n.name = name }
}

// New creates a network with layerCount layers: an input layer of in nodes,
// layerCount-2 hidden layers of hidden nodes each and an output layer of out
// nodes. Weights are initialized once, here.
func New(layerCount, hidden, in, out int, opts ...Option) (*Network, error) {
	if layerCount < 2 {
		return nil, fmt.Errorf("%w: layer count %d, need at least 2", ErrInvalidConstruction, layerCount)
	}
	if layerCount > 2 && hidden < 1 {
		return nil, fmt.Errorf("%w: hidden layer size %d", ErrInvalidConstruction, hidden)
	}

	sizes := make([]int, layerCount)
	sizes[0] = in
	for i := 1; i < layerCount-1; i++ {
		sizes[i] = hidden
	}
	sizes[layerCount-1] = out

	return NewFromSizes(sizes, opts...)
}

// NewFromSizes creates a network with one layer per entry in sizes.
func NewFromSizes(sizes []int, opts ...Option) (*Network, error) {
	n, err := newShell(sizes, opts...)
	if err != nil {
		return nil, err
	}
	if n.rng == nil {
		n.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	n.layers[0] = layer.NewInput(sizes[0])
	for i := 1; i < len(sizes); i++ {
		n.layers[i] = layer.NewDense(sizes[i], n.layers[i-1], n.rng)
	}
	return n, nil
}

// newZero creates a network whose weights are all zero, to be filled by the caller.
func newZero(sizes []int, opts ...Option) (*Network, error) {
	n, err := newShell(sizes, opts...)
	if err != nil {
		return nil, err
	}
	n.layers[0] = layer.NewInput(sizes[0])
	for i := 1; i < len(sizes); i++ {
		n.layers[i] = layer.NewZeroDense(sizes[i], n.layers[i-1])
	}
	return n, nil
}

func newShell(sizes []int, opts ...Option) (*Network, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("%w: layer count %d, need at least 2", ErrInvalidConstruction, len(sizes))
	}
	for i, s := range sizes {
		if s < 1 {
			return nil, fmt.Errorf("%w: layer %d has %d nodes", ErrInvalidConstruction, i, s)
		}
	}

	n := &Network{
		layers:     make([]*layer.Layer, len(sizes)),
		act:        activations.ReLU{},
		inputSize:  sizes[0],
		outputSize: sizes[len(sizes)-1],
	}
	if len(sizes) > 2 {
		n.hiddenSize = sizes[1]
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Pass runs forward propagation and returns a copy of the output values.
// On a length mismatch nothing is computed and the network is unchanged.
func (n *Network) Pass(input []float32) ([]float32, error) {
	if len(input) != n.inputSize {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrInvalidInputShape, len(input), n.inputSize)
	}
	n.forward(input)
	return n.Output(), nil
}

func (n *Network) forward(input []float32) {
	n.layers[0].SetValues(input)
	for _, l := range n.layers[1:] {
		l.Forward(n.act)
	}
}

// Train performs one online update on a single sample and returns the
// output of the forward pass it ran before updating.
//
// The output layer is seeded with target - output and every layer, output
// included, multiplies its error by ReLU'(value) before propagating it and
// moving its weights by rate * delta * prevValue.
func (n *Network) Train(input, target []float32, rate float32) ([]float32, error) {
	if len(input) != n.inputSize {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrInvalidInputShape, len(input), n.inputSize)
	}
	if len(target) != n.outputSize {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrInvalidTargetShape, len(target), n.outputSize)
	}

	n.forward(input)
	output := n.Output()

	last := n.layers[len(n.layers)-1]
	dy := last.Gradient()
	for i := range dy {
		dy[i] = target[i] - output[i]
	}

	for i := len(n.layers) - 1; i >= 1; i-- {
		n.layers[i].Backward(n.act, rate, n.layers[i-1].Gradient())
	}

	for _, l := range n.layers {
		l.FlushDy()
	}
	return output, nil
}

// Output returns a copy of the output layer values from the last pass.
func (n *Network) Output() []float32 {
	return n.layers[len(n.layers)-1].Values()
}

// InputSize returns the input layer size.
func (n *Network) InputSize() int { return n.inputSize }

// OutputSize returns the output layer size.
func (n *Network) OutputSize() int { return n.outputSize }

// LayerCount returns the number of layers including input and output.
func (n *Network) LayerCount() int { return len(n.layers) }

// HiddenLayerCount returns the number of hidden layers.
func (n *Network) HiddenLayerCount() int { return len(n.layers) - 2 }

// HiddenLayerSize returns the node count of the hidden layers, 0 if there are none.
func (n *Network) HiddenLayerSize() int { return n.hiddenSize }

// Sizes returns the node count of every layer.
func (n *Network) Sizes() []int {
	sizes := make([]int, len(n.layers))
	for i, l := range n.layers {
		sizes[i] = l.Size()
	}
	return sizes
}

// Layer returns layer i.
func (n *Network) Layer(i int) *layer.Layer { return n.layers[i] }

// Name returns the display name.
func (n *Network) Name() string { return n.name }

// SetName sets the display name.
func (n *Network) SetName(name string) { n.name = name }

// WeightCount returns the total number of weights.
func (n *Network) WeightCount() int {
	total := 0
	for _, l := range n.layers {
		total += len(l.Weights())
	}
	return total
}
