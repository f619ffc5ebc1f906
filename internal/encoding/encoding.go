// Package encoding converts between digit labels and one-hot vectors.
package encoding

import "fmt"

// Classes is the number of digit classes.
const Classes = 10

// DigitToFloats returns a one-hot vector of length Classes with a 1 at d.
// d must be in [0, 9].
func DigitToFloats(d int) []float32 {
	return OneHot(d, Classes)
}

// OneHot returns a vector of length size with a 1 at label.
func OneHot(label, size int) []float32 {
	if label < 0 || label >= size {
		panic(fmt.Sprintf("encoding: label %d out of range [0, %d)", label, size))
	}
	out := make([]float32, size)
	out[label] = 1
	return out
}

// FloatsToDigit returns the index of the largest value in v. Ties go to
// the lowest index; an empty vector yields 0.
func FloatsToDigit(v []float32) int {
	largest := 0
	for i := range v {
		if v[i] > v[largest] {
			largest = i
		}
	}
	return largest
}
