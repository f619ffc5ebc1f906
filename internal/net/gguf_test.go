package net

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ggufReader struct {
	t   *testing.T
	buf *bytes.Reader
}

func (r ggufReader) u32() uint32 {
	var v uint32
	require.NoError(r.t, binary.Read(r.buf, binary.LittleEndian, &v))
	return v
}

func (r ggufReader) u64() uint64 {
	var v uint64
	require.NoError(r.t, binary.Read(r.buf, binary.LittleEndian, &v))
	return v
}

func (r ggufReader) str() string {
	b := make([]byte, r.u64())
	_, err := r.buf.Read(b)
	require.NoError(r.t, err)
	return string(b)
}

func TestExportGGUF(t *testing.T) {
	n, err := New(3, 3, 2, 2, WithSeed(4), WithName("gguf"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, n.ExportGGUF(&buf))
	data := buf.Bytes()
	r := ggufReader{t: t, buf: bytes.NewReader(data)}

	assert.Equal(t, uint32(GGUFMagic), r.u32())
	assert.Equal(t, uint32(GGUFVersion), r.u32())
	assert.Equal(t, uint64(2), r.u64())
	kvCount := r.u64()
	assert.Equal(t, uint64(6), kvCount)

	meta := map[string]any{}
	for i := uint64(0); i < kvCount; i++ {
		key := r.str()
		switch GGUFType(r.u32()) {
		case GGUFTypeUint32:
			meta[key] = r.u32()
		case GGUFTypeString:
			meta[key] = r.str()
		default:
			t.Fatalf("unexpected type for %s", key)
		}
	}
	assert.Equal(t, "digitnet", meta["general.architecture"])
	assert.Equal(t, "gguf", meta["general.name"])
	assert.Equal(t, uint32(3), meta["digitnet.layer_count"])
	assert.Equal(t, "relu", meta["digitnet.activation"])

	offsets := make([]uint64, 2)
	for i := range offsets {
		assert.Equal(t, []string{"layer.1.weight", "layer.2.weight"}[i], r.str())
		require.Equal(t, uint32(2), r.u32())
		cols, rows := r.u64(), r.u64()
		assert.Equal(t, uint64(n.Layer(i+1).PrevSize()), cols)
		assert.Equal(t, uint64(n.Layer(i+1).Size()), rows)
		assert.Equal(t, GGMLTypeF32, r.u32())
		offsets[i] = r.u64()
	}
	assert.Equal(t, uint64(0), offsets[0])
	assert.Equal(t, uint64(0), offsets[1]%ggufAlignment)

	start := alignOffset(uint64(len(data) - r.buf.Len()))
	for i, off := range offsets {
		want := n.Layer(i + 1).Weights()
		got := make([]float32, len(want))
		pos := start + off
		require.NoError(t, binary.Read(bytes.NewReader(data[pos:]), binary.LittleEndian, got))
		assert.Equal(t, want, got)
	}
}

func TestExportGGUFFile(t *testing.T) {
	n, err := New(2, 0, 4, 2, WithSeed(1))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.gguf")
	require.NoError(t, n.ExportGGUFFile(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(100))
}
