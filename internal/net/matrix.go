package net

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// WeightMatrix returns a float64 copy of layer i's weights as a
// [size(i), size(i-1)] matrix.
func (n *Network) WeightMatrix(i int) (*mat.Dense, error) {
	if i < 1 || i >= len(n.layers) {
		return nil, fmt.Errorf("layer %d has no weights", i)
	}
	l := n.layers[i]
	w := l.Weights()
	data := make([]float64, len(w))
	for j, v := range w {
		data[j] = float64(v)
	}
	return mat.NewDense(l.Size(), l.PrevSize(), data), nil
}

// WeightNorms returns the Frobenius norm of every weight matrix, layer 1 first.
func (n *Network) WeightNorms() []float64 {
	norms := make([]float64, 0, len(n.layers)-1)
	for i := 1; i < len(n.layers); i++ {
		m, _ := n.WeightMatrix(i)
		norms = append(norms, mat.Norm(m, 2))
	}
	return norms
}
