// Package activations provides the scalar and vector activation functions used by the network.
package activations

import "github.com/chewxy/math32"

// Activation is an activation function with derivative.
//
// Derivative is expressed in terms of the activated value y = Activate(x),
// not the raw pre-activation sum. Layers only keep activated node values,
// so that is the quantity available during backpropagation.
type Activation interface {
	// Activate computes f(x)
	Activate(x float32) float32

	// Derivative computes f'(x) given y = f(x)
	Derivative(y float32) float32

	String() string
}

// ReLU activation function.
type ReLU struct{}

// Activate computes max(0, x)
func (r ReLU) Activate(x float32) float32 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 if y > 0, else 0
func (r ReLU) Derivative(y float32) float32 {
	if y > 0 {
		return 1
	}
	return 0
}

func (r ReLU) String() string { return "relu" }

// Sigmoid activation function.
type Sigmoid struct{}

// Activate computes 1 / (1 + e^-x)
func (s Sigmoid) Activate(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}

// Derivative computes y * (1 - y)
func (s Sigmoid) Derivative(y float32) float32 {
	return y * (1 - y)
}

func (s Sigmoid) String() string { return "sigmoid" }

// Apply returns a new slice holding act.Activate of every element of x.
func Apply(act Activation, x []float32) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = act.Activate(v)
	}
	return out
}

// ApplyDerivative returns a new slice holding act.Derivative of every element of y.
func ApplyDerivative(act Activation, y []float32) []float32 {
	out := make([]float32, len(y))
	for i, v := range y {
		out[i] = act.Derivative(v)
	}
	return out
}

// Lookup maps the names returned by String to their activation.
var Lookup = map[string]Activation{
	"relu":    ReLU{},
	"sigmoid": Sigmoid{},
}
