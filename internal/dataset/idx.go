package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// IDX magic numbers.
const (
	idxImageMagic = 2051
	idxLabelMagic = 2049
)

// ReadIDX reads up to limit samples from an MNIST image stream and its
// label stream. A limit <= 0 reads every sample present in both.
func ReadIDX(images, labels io.Reader, limit int) ([]Sample, error) {
	var hdr struct {
		Magic, Count, Rows, Cols int32
	}
	if err := binary.Read(images, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: failed to read image header: %v", ErrFormat, err)
	}
	if hdr.Magic != idxImageMagic {
		return nil, fmt.Errorf("%w: invalid image magic number: %d", ErrFormat, hdr.Magic)
	}
	if hdr.Rows != ImageHeight || hdr.Cols != ImageWidth {
		return nil, fmt.Errorf("%w: images are %dx%d, want %dx%d", ErrFormat, hdr.Rows, hdr.Cols, ImageHeight, ImageWidth)
	}

	var lhdr struct {
		Magic, Count int32
	}
	if err := binary.Read(labels, binary.BigEndian, &lhdr); err != nil {
		return nil, fmt.Errorf("%w: failed to read label header: %v", ErrFormat, err)
	}
	if lhdr.Magic != idxLabelMagic {
		return nil, fmt.Errorf("%w: invalid label magic number: %d", ErrFormat, lhdr.Magic)
	}

	n := int(min(hdr.Count, lhdr.Count))
	if n < 0 {
		return nil, fmt.Errorf("%w: negative sample count", ErrFormat)
	}
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]Sample, n)
	pixels := make([]byte, ImageSize)
	label := make([]byte, 1)
	for i := range out {
		if _, err := io.ReadFull(images, pixels); err != nil {
			return nil, fmt.Errorf("%w: image %d: %v", ErrFormat, i, err)
		}
		if _, err := io.ReadFull(labels, label); err != nil {
			return nil, fmt.Errorf("%w: label %d: %v", ErrFormat, i, err)
		}
		if label[0] > 9 {
			return nil, fmt.Errorf("%w: label %d is %d", ErrFormat, i, label[0])
		}

		input := make([]float32, ImageSize)
		for p, v := range pixels {
			input[p] = float32(v) / 255
		}
		out[i] = Sample{Input: input, Label: int(label[0])}
	}
	return out, nil
}

// LoadIDX reads samples from an IDX image file and label file.
// Gzip-compressed files are detected and decompressed.
func LoadIDX(imagePath, labelPath string, limit int) ([]Sample, error) {
	images, closeImages, err := openData(imagePath)
	if err != nil {
		return nil, err
	}
	defer closeImages()

	labels, closeLabels, err := openData(labelPath)
	if err != nil {
		return nil, err
	}
	defer closeLabels()

	samples, err := ReadIDX(images, labels, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", imagePath, err)
	}
	return samples, nil
}

func openData(path string) (io.Reader, func(), error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	br := bufio.NewReader(file)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		return gz, func() {
			gz.Close()
			file.Close()
		}, nil
	}
	return br, func() { file.Close() }, nil
}
