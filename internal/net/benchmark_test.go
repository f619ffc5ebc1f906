// Package net provides benchmarks for the digit network.
package net

import (
	"bytes"
	"math/rand"
	"testing"
)

// fillRandom fills a slice with random values.
func fillRandom(rng *rand.Rand, slice []float32) {
	for i := range slice {
		slice[i] = rng.Float32()
	}
}

func benchNetwork(b *testing.B, hidden int) *Network {
	b.Helper()
	n, err := New(4, hidden, DigitInputSize, DigitOutputSize, WithSeed(42))
	if err != nil {
		b.Fatal(err)
	}
	return n
}

// BenchmarkNetworkPass benchmarks a forward pass through a 784-128-128-10 network.
func BenchmarkNetworkPass(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	network := benchNetwork(b, 128)
	input := make([]float32, DigitInputSize)
	fillRandom(rng, input)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		network.Pass(input)
	}
}

// BenchmarkNetworkTrain benchmarks training on a single sample.
func BenchmarkNetworkTrain(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	network := benchNetwork(b, 128)
	input := make([]float32, DigitInputSize)
	target := make([]float32, DigitOutputSize)
	fillRandom(rng, input)
	target[3] = 1

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		network.Train(input, target, 0.01)
	}
}

// BenchmarkNetworkTrainWide benchmarks training with 512-node hidden layers.
func BenchmarkNetworkTrainWide(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	network := benchNetwork(b, 512)
	input := make([]float32, DigitInputSize)
	target := make([]float32, DigitOutputSize)
	fillRandom(rng, input)
	target[7] = 1

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		network.Train(input, target, 0.01)
	}
}

// BenchmarkSnapshotEncode benchmarks encoding a network snapshot.
func BenchmarkSnapshotEncode(b *testing.B) {
	network := benchNetwork(b, 128)
	var buf bytes.Buffer

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := network.Encode(&buf); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSnapshotDecode benchmarks decoding a network snapshot.
func BenchmarkSnapshotDecode(b *testing.B) {
	data, err := benchNetwork(b, 128).Marshal()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Unmarshal(data); err != nil {
			b.Fatal(err)
		}
	}
}
