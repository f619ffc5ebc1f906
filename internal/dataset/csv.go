package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ReadCSV reads samples in the common MNIST CSV layout: one row per image,
// the label in the first column followed by 784 pixel values in [0, 255].
// A first row whose label column is not a number is treated as a header.
// A limit <= 0 reads every row.
func ReadCSV(r io.Reader, limit int) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = ImageSize + 1
	reader.ReuseRecord = true

	var out []Sample
	for row := 0; limit <= 0 || len(out) < limit; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read csv: %v", ErrFormat, err)
		}

		label, err := strconv.Atoi(record[0])
		if err != nil {
			if row == 0 {
				continue
			}
			return nil, fmt.Errorf("%w: failed to parse label at row %d: %v", ErrFormat, row, err)
		}
		if label < 0 || label > 9 {
			return nil, fmt.Errorf("%w: label %d at row %d", ErrFormat, label, row)
		}

		input := make([]float32, ImageSize)
		for j, valStr := range record[1:] {
			val, err := strconv.ParseFloat(valStr, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: failed to parse value at row %d, col %d: %v", ErrFormat, row, j+1, err)
			}
			input[j] = float32(val) / 255
		}
		out = append(out, Sample{Input: input, Label: label})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: csv file has no data rows", ErrFormat)
	}
	return out, nil
}

// LoadCSV reads samples from an MNIST CSV file, gzip-compressed or not.
func LoadCSV(path string, limit int) ([]Sample, error) {
	r, closeFile, err := openData(path)
	if err != nil {
		return nil, err
	}
	defer closeFile()

	samples, err := ReadCSV(r, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// Split returns the first ratio of set and the rest. The slices share
// storage with set.
func Split(set []Sample, ratio float32) ([]Sample, []Sample) {
	if ratio <= 0 {
		return nil, set
	}
	if ratio >= 1 {
		return set, nil
	}
	idx := int(float32(len(set)) * ratio)
	return set[:idx], set[idx:]
}
