package net

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Snapshot layout, little-endian:
//
//	magic    [4]byte "DGNN"
//	version  uint16
//	layers   uint32
//	sizes    uint32 x layers
//	nameLen  uint32, name bytes
//	weights  float32 x sum(size[i]*size[i-1]), layer 1 first, row-major
const (
	SnapshotVersion uint16 = 1

	maxSnapshotLayers = 1 << 10
	maxSnapshotSize   = 1 << 20
	maxSnapshotName   = 1 << 16

	// 1 GiB of float32 weights.
	maxSnapshotWeights = 1 << 28
)

var snapshotMagic = [4]byte{'D', 'G', 'N', 'N'}

// Encode writes the network to w.
func (n *Network) Encode(w io.Writer) error {
	if len(n.name) > maxSnapshotName {
		return fmt.Errorf("%w: name too long (%d bytes)", ErrSnapshotIO, len(n.name))
	}
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(snapshotMagic[:]); err != nil {
		return fmt.Errorf("%w: failed to write header: %v", ErrSnapshotIO, err)
	}
	header := []any{
		SnapshotVersion,
		uint32(len(n.layers)),
	}
	for _, l := range n.layers {
		header = append(header, uint32(l.Size()))
	}
	header = append(header, uint32(len(n.name)))
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("%w: failed to write header: %v", ErrSnapshotIO, err)
		}
	}
	if _, err := bw.WriteString(n.name); err != nil {
		return fmt.Errorf("%w: failed to write name: %v", ErrSnapshotIO, err)
	}

	for i, l := range n.layers[1:] {
		if err := binary.Write(bw, binary.LittleEndian, l.Weights()); err != nil {
			return fmt.Errorf("%w: failed to write layer %d weights: %v", ErrSnapshotIO, i+1, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotIO, err)
	}
	return nil
}

// Decode reads a network written by Encode. Only the structure is
// validated; see Load for the digit shape check. Data after the last
// weight is rejected.
func Decode(r io.Reader) (*Network, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", ErrSnapshotIO, err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("%w: not a network snapshot", ErrSnapshotIO)
	}

	var version uint16
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: failed to read version: %v", ErrSnapshotIO, err)
	}
	if version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", ErrSnapshotIO, version)
	}

	var numLayers uint32
	if err := binary.Read(br, binary.LittleEndian, &numLayers); err != nil {
		return nil, fmt.Errorf("%w: failed to read layer count: %v", ErrSnapshotIO, err)
	}
	if numLayers < 2 || numLayers > maxSnapshotLayers {
		return nil, fmt.Errorf("%w: bad layer count %d", ErrSnapshotIO, numLayers)
	}

	raw := make([]uint32, numLayers)
	if err := binary.Read(br, binary.LittleEndian, raw); err != nil {
		return nil, fmt.Errorf("%w: failed to read layer sizes: %v", ErrSnapshotIO, err)
	}
	sizes := make([]int, numLayers)
	for i, s := range raw {
		if s < 1 || s > maxSnapshotSize {
			return nil, fmt.Errorf("%w: bad size %d for layer %d", ErrSnapshotIO, s, i)
		}
		sizes[i] = int(s)
	}
	total := 0
	for i := 1; i < len(sizes); i++ {
		total += sizes[i] * sizes[i-1]
		if total > maxSnapshotWeights {
			return nil, fmt.Errorf("%w: too many weights", ErrSnapshotIO)
		}
	}

	var nameLen uint32
	if err := binary.Read(br, binary.LittleEndian, &nameLen); err != nil {
		return nil, fmt.Errorf("%w: failed to read name: %v", ErrSnapshotIO, err)
	}
	if nameLen > maxSnapshotName {
		return nil, fmt.Errorf("%w: name too long (%d bytes)", ErrSnapshotIO, nameLen)
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(br, name); err != nil {
		return nil, fmt.Errorf("%w: failed to read name: %v", ErrSnapshotIO, err)
	}

	weights := make([][]float32, numLayers)
	for i := 1; i < len(sizes); i++ {
		w, err := readWeights(br, sizes[i]*sizes[i-1])
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read layer %d weights: %v", ErrSnapshotIO, i, err)
		}
		weights[i] = w
	}
	if _, err := br.Peek(1); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("%w: trailing data after weights", ErrSnapshotIO)
		}
		return nil, fmt.Errorf("%w: %v", ErrSnapshotIO, err)
	}

	n, err := newZero(sizes, WithName(string(name)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotIO, err)
	}
	for i, l := range n.layers[1:] {
		if err := l.SetWeights(weights[i+1]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSnapshotIO, err)
		}
	}
	return n, nil
}

// readWeights reads count float32 values in bounded chunks, so a header
// that claims more weights than the data holds fails before the full
// slice is allocated.
func readWeights(r io.Reader, count int) ([]float32, error) {
	const chunk = 1 << 16
	w := make([]float32, 0, min(count, chunk))
	buf := make([]float32, min(count, chunk))
	for len(w) < count {
		part := buf[:min(count-len(w), chunk)]
		if err := binary.Read(r, binary.LittleEndian, part); err != nil {
			return nil, err
		}
		w = append(w, part...)
	}
	return w, nil
}

// Marshal returns the encoded network.
func (n *Network) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a network from data without the digit shape check.
func Unmarshal(data []byte) (*Network, error) {
	return Decode(bytes.NewReader(data))
}

// Load decodes a network and rejects anything that is not 784 -> 10.
// On error the returned network is nil and the parsed data is discarded.
func Load(r io.Reader) (*Network, error) {
	n, err := Decode(r)
	if err != nil {
		return nil, err
	}
	if n.inputSize != DigitInputSize || n.outputSize != DigitOutputSize {
		return nil, fmt.Errorf("%w: network is %d -> %d, want %d -> %d",
			ErrSnapshotShape, n.inputSize, n.outputSize, DigitInputSize, DigitOutputSize)
	}
	return n, nil
}

// LoadFile loads a network from a file and names it after the file.
func LoadFile(filename string) (*Network, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open file: %v", ErrSnapshotIO, err)
	}
	defer file.Close()

	n, err := Load(file)
	if err != nil {
		return nil, err
	}
	n.name = filename
	return n, nil
}

// SaveFile names the network after filename and writes it there. The
// name is only changed when the write succeeds.
func (n *Network) SaveFile(filename string) error {
	old := n.name
	n.name = filename
	if err := n.WriteFile(filename); err != nil {
		n.name = old
		return err
	}
	return nil
}

// WriteFile writes the network to filename and keeps its current name.
func (n *Network) WriteFile(filename string) error {
	if len(n.name) > maxSnapshotName {
		return fmt.Errorf("%w: name too long (%d bytes)", ErrSnapshotIO, len(n.name))
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: failed to create file: %v", ErrSnapshotIO, err)
	}
	if err := n.Encode(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotIO, err)
	}
	return nil
}
