package dataset

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// csvRows returns count MNIST CSV rows; row i has label i%10 and every
// pixel set to 51*(i%6).
func csvRows(count int, header bool) string {
	var b strings.Builder
	if header {
		b.WriteString("label")
		for p := 0; p < ImageSize; p++ {
			b.WriteString(",pixel" + strconv.Itoa(p))
		}
		b.WriteString("\n")
	}
	for i := 0; i < count; i++ {
		b.WriteString(strconv.Itoa(i % 10))
		v := strconv.Itoa(51 * (i % 6))
		for p := 0; p < ImageSize; p++ {
			b.WriteString("," + v)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func TestReadCSV(t *testing.T) {
	for _, header := range []bool{false, true} {
		samples, err := ReadCSV(strings.NewReader(csvRows(12, header)), 0)
		require.NoError(t, err)
		require.Len(t, samples, 12)

		assert.Equal(t, 3, samples[3].Label)
		assert.InDelta(t, 0.6, samples[3].Input[0], 1e-6)
		assert.InDelta(t, 0.6, samples[3].Input[ImageSize-1], 1e-6)
		assert.Equal(t, float32(1), samples[5].Input[100])
	}
}

func TestReadCSVLimit(t *testing.T) {
	samples, err := ReadCSV(strings.NewReader(csvRows(12, true)), 4)
	require.NoError(t, err)
	assert.Len(t, samples, 4)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"header only", "label,a,b\n"},
		{"short row", "1,2,3\n"},
		{"bad label", csvRows(1, false) + "x" + csvRows(1, false)[1:]},
		{"label out of range", "12" + csvRows(1, false)[1:]},
		{"bad pixel", strings.Replace(csvRows(1, false), ",0", ",z", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.data), 0)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestLoadCSVGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mnist_train.csv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(csvRows(3, true)))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	samples, err := LoadCSV(path, 0)
	require.NoError(t, err)
	assert.Len(t, samples, 3)
}

func TestSplit(t *testing.T) {
	set := TwoClass(10, 0)

	a, b := Split(set, 0.8)
	assert.Len(t, a, 8)
	assert.Len(t, b, 2)

	a, b = Split(set, 0)
	assert.Empty(t, a)
	assert.Len(t, b, 10)

	a, b = Split(set, 1.5)
	assert.Len(t, a, 10)
	assert.Empty(t, b)
}
