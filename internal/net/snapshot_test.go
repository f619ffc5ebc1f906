package net

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digitInput(seed float32) []float32 {
	input := make([]float32, DigitInputSize)
	for i := range input {
		input[i] = float32(i%17) / 17 * seed
	}
	return input
}

func TestSnapshotRoundTrip(t *testing.T) {
	n, err := New(4, 24, DigitInputSize, DigitOutputSize, WithSeed(21), WithName("round trip"))
	require.NoError(t, err)
	// make outputs non-trivial
	for i := 0; i < 5; i++ {
		_, err := n.Train(digitInput(1), make([]float32, DigitOutputSize), 0.5)
		require.NoError(t, err)
	}

	data, err := n.Marshal()
	require.NoError(t, err)

	loaded, err := Load(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, n.Sizes(), loaded.Sizes())
	assert.Equal(t, "round trip", loaded.Name())
	assert.Equal(t, n.HiddenLayerSize(), loaded.HiddenLayerSize())
	assert.Equal(t, capture(n).weights, capture(loaded).weights)

	for _, scale := range []float32{0.2, 1, 3} {
		want, err := n.Pass(digitInput(scale))
		require.NoError(t, err)
		got, err := loaded.Pass(digitInput(scale))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestUnmarshalAnyShape(t *testing.T) {
	n, err := New(3, 4, 3, 2, WithSeed(6))
	require.NoError(t, err)
	data, err := n.Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 2}, decoded.Sizes())
	assert.Equal(t, capture(n).weights, capture(decoded).weights)
}

func TestLoadRejectsShape(t *testing.T) {
	for _, sizes := range [][]int{{100, 10}, {784, 16, 9}} {
		n, err := NewFromSizes(sizes, WithSeed(1))
		require.NoError(t, err)
		data, err := n.Marshal()
		require.NoError(t, err)

		loaded, err := Load(bytes.NewReader(data))
		assert.Nil(t, loaded)
		assert.ErrorIs(t, err, ErrSnapshotShape)
		assert.NotErrorIs(t, err, ErrSnapshotIO)
	}
}

func TestDecodeErrors(t *testing.T) {
	n, err := New(3, 4, 3, 2, WithSeed(6), WithName("x"))
	require.NoError(t, err)
	valid, err := n.Marshal()
	require.NoError(t, err)

	patch := func(off int, v any) []byte {
		b := append([]byte(nil), valid...)
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
		copy(b[off:], buf.Bytes())
		return b
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("NOPE"), valid[4:]...)},
		{"bad version", patch(4, uint16(9))},
		{"one layer", patch(6, uint32(1))},
		{"too many layers", patch(6, uint32(maxSnapshotLayers+1))},
		{"zero size", patch(10, uint32(0))},
		{"huge name", patch(22, uint32(maxSnapshotName+1))},
		{"truncated header", valid[:8]},
		{"truncated weights", valid[:len(valid)-1]},
		{"weights missing for large layer", patch(10, uint32(maxSnapshotSize))},
		{"trailing data", append(append([]byte(nil), valid...), 1, 2, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(bytes.NewReader(tt.data))
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrSnapshotIO)
		})
	}
}

func TestEncodeNameLimit(t *testing.T) {
	n, err := New(2, 0, 3, 2, WithSeed(4))
	require.NoError(t, err)

	n.SetName(strings.Repeat("a", maxSnapshotName))
	data, err := n.Marshal()
	require.NoError(t, err)
	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, n.Name(), decoded.Name())

	n.SetName(strings.Repeat("a", maxSnapshotName+1))
	data, err = n.Marshal()
	assert.Nil(t, data)
	assert.ErrorIs(t, err, ErrSnapshotIO)

	path := filepath.Join(t.TempDir(), "long.bin")
	assert.ErrorIs(t, n.WriteFile(path), ErrSnapshotIO)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteFileKeepsName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "copy.bin")
	n, err := New(3, 8, DigitInputSize, DigitOutputSize, WithSeed(2), WithName("active"))
	require.NoError(t, err)

	require.NoError(t, n.WriteFile(path))
	assert.Equal(t, "active", n.Name())

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, capture(n).weights, capture(loaded).weights)
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digits.bin")
	n, err := New(3, 8, DigitInputSize, DigitOutputSize, WithSeed(2), WithName("before"))
	require.NoError(t, err)

	require.NoError(t, n.SaveFile(path))
	assert.Equal(t, path, n.Name())

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, loaded.Name())
	assert.Equal(t, capture(n).weights, capture(loaded).weights)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.bin"))
	assert.ErrorIs(t, err, ErrSnapshotIO)

	garbage := filepath.Join(dir, "garbage.bin")
	require.NoError(t, os.WriteFile(garbage, []byte("not a network at all"), 0644))
	_, err = LoadFile(garbage)
	assert.ErrorIs(t, err, ErrSnapshotIO)

	unsaved := &Network{name: "kept"}
	err = unsaved.SaveFile(filepath.Join(dir, "no", "such", "dir.bin"))
	assert.ErrorIs(t, err, ErrSnapshotIO)
	assert.Equal(t, "kept", unsaved.Name())
}
