package dataset

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadPNG decodes a PNG and converts it to a normalized input by averaging
// the red, green and blue channels. If the file name starts with a digit
// that digit is the label, otherwise the label is -1.
func LoadPNG(path string) (Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return Sample{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}

	base := filepath.Base(path)
	s := Sample{
		Input: FromImage(img),
		Label: -1,
		Desc:  strings.TrimSuffix(base, filepath.Ext(base)),
	}
	if base != "" && base[0] >= '0' && base[0] <= '9' {
		s.Label = int(base[0] - '0')
	}
	return s, nil
}

// FromImage converts any image to a normalized row-major input vector.
func FromImage(img image.Image) []float32 {
	b := img.Bounds()
	pix := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pix = append(pix, c.R, c.G, c.B)
		}
	}
	return FromBitmap(pix, 3)
}

// LoadPNGDir loads every .png file in dir, ordered by name.
func LoadPNGDir(dir string) ([]Sample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]Sample, 0, len(names))
	for _, name := range names {
		s, err := LoadPNG(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
