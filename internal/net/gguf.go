package net

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// GGUF constants.
const (
	GGUFMagic   = 0x46554747 // "GGUF" in little-endian
	GGUFVersion = 3

	ggufAlignment = 32
)

// GGUFType is the type tag of a metadata value.
type GGUFType uint32

const (
	GGUFTypeUint32 GGUFType = 4
	GGUFTypeString GGUFType = 8
)

// GGMLTypeF32 is the tensor type of every exported weight matrix.
const GGMLTypeF32 uint32 = 0

// GGUFWriter writes the primitive pieces of a GGUF file.
type GGUFWriter struct {
	w       io.Writer
	written uint64
}

func NewGGUFWriter(w io.Writer) *GGUFWriter {
	return &GGUFWriter{w: w}
}

func (gw *GGUFWriter) write(v any) error {
	if err := binary.Write(gw.w, binary.LittleEndian, v); err != nil {
		return err
	}
	gw.written += uint64(binary.Size(v))
	return nil
}

func (gw *GGUFWriter) WriteHeader(kvCount, tensorCount uint64) error {
	for _, v := range []any{uint32(GGUFMagic), uint32(GGUFVersion), tensorCount, kvCount} {
		if err := gw.write(v); err != nil {
			return err
		}
	}
	return nil
}

func (gw *GGUFWriter) WriteString(s string) error {
	if err := gw.write(uint64(len(s))); err != nil {
		return err
	}
	n, err := io.WriteString(gw.w, s)
	gw.written += uint64(n)
	return err
}

// WriteKV writes one metadata entry. Only uint32 and string values are used.
func (gw *GGUFWriter) WriteKV(key string, value any) error {
	if err := gw.WriteString(key); err != nil {
		return err
	}
	switch v := value.(type) {
	case uint32:
		if err := gw.write(uint32(GGUFTypeUint32)); err != nil {
			return err
		}
		return gw.write(v)
	case string:
		if err := gw.write(uint32(GGUFTypeString)); err != nil {
			return err
		}
		return gw.WriteString(v)
	default:
		return fmt.Errorf("unsupported GGUF value type %T", value)
	}
}

// WriteTensorInfo writes a tensor descriptor. GGUF lists dimensions
// innermost first, so shape is written reversed.
func (gw *GGUFWriter) WriteTensorInfo(name string, shape []uint64, offset uint64) error {
	if err := gw.WriteString(name); err != nil {
		return err
	}
	if err := gw.write(uint32(len(shape))); err != nil {
		return err
	}
	for i := len(shape) - 1; i >= 0; i-- {
		if err := gw.write(shape[i]); err != nil {
			return err
		}
	}
	if err := gw.write(GGMLTypeF32); err != nil {
		return err
	}
	return gw.write(offset)
}

// Pad writes zero bytes up to the next alignment boundary.
func (gw *GGUFWriter) Pad() error {
	if rem := gw.written % ggufAlignment; rem != 0 {
		return gw.write(make([]byte, ggufAlignment-rem))
	}
	return nil
}

func alignOffset(n uint64) uint64 {
	return (n + ggufAlignment - 1) / ggufAlignment * ggufAlignment
}

// ExportGGUF writes the weights as float32 GGUF tensors named
// "layer.<i>.weight" with shape [size(i), size(i-1)]. The export is one-way;
// snapshots remain the format read back by Load.
func (n *Network) ExportGGUF(w io.Writer) error {
	bw := bufio.NewWriter(w)
	gw := NewGGUFWriter(bw)

	kvs := []struct {
		key   string
		value any
	}{
		{"general.architecture", "digitnet"},
		{"general.name", n.name},
		{"digitnet.layer_count", uint32(len(n.layers))},
		{"digitnet.input_size", uint32(n.inputSize)},
		{"digitnet.output_size", uint32(n.outputSize)},
		{"digitnet.activation", n.act.String()},
	}

	tensors := len(n.layers) - 1
	if err := gw.WriteHeader(uint64(len(kvs)), uint64(tensors)); err != nil {
		return fmt.Errorf("failed to write gguf header: %w", err)
	}
	for _, kv := range kvs {
		if err := gw.WriteKV(kv.key, kv.value); err != nil {
			return fmt.Errorf("failed to write gguf metadata %s: %w", kv.key, err)
		}
	}

	var offset uint64
	for i, l := range n.layers[1:] {
		shape := []uint64{uint64(l.Size()), uint64(l.PrevSize())}
		if err := gw.WriteTensorInfo(fmt.Sprintf("layer.%d.weight", i+1), shape, offset); err != nil {
			return fmt.Errorf("failed to write gguf tensor info: %w", err)
		}
		offset = alignOffset(offset + uint64(4*len(l.Weights())))
	}

	for _, l := range n.layers[1:] {
		if err := gw.Pad(); err != nil {
			return fmt.Errorf("failed to write gguf padding: %w", err)
		}
		if err := gw.write(l.Weights()); err != nil {
			return fmt.Errorf("failed to write gguf tensor data: %w", err)
		}
	}
	return bw.Flush()
}

// ExportGGUFFile writes a GGUF export to filename.
func (n *Network) ExportGGUFFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := n.ExportGGUF(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
