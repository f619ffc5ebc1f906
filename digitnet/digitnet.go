// Package digitnet re-exports the digit network, its data loaders and the
// training loop for use outside this module.
package digitnet

import (
	"io"
	"math/rand"

	"github.com/FlavioCFOliveira/digitnet/internal/dataset"
	"github.com/FlavioCFOliveira/digitnet/internal/encoding"
	"github.com/FlavioCFOliveira/digitnet/internal/metrics"
	"github.com/FlavioCFOliveira/digitnet/internal/net"
	"github.com/FlavioCFOliveira/digitnet/internal/opt"
	"github.com/FlavioCFOliveira/digitnet/internal/trainer"
)

// Re-export common types for easier access
type (
	Network   = net.Network
	Option    = net.Option
	Sample    = dataset.Sample
	Trainer   = trainer.Trainer
	Callback  = trainer.Callback
	Result    = trainer.Result
	Report    = metrics.Report
	Scheduler = opt.Scheduler
)

// Shape of a digit network.
const (
	InputSize  = net.DigitInputSize
	OutputSize = net.DigitOutputSize
)

// Errors
var (
	ErrInvalidInputShape   = net.ErrInvalidInputShape
	ErrInvalidTargetShape  = net.ErrInvalidTargetShape
	ErrInvalidConstruction = net.ErrInvalidConstruction
	ErrSnapshotShape       = net.ErrSnapshotShape
	ErrSnapshotIO          = net.ErrSnapshotIO
	ErrFormat              = dataset.ErrFormat
)

// Network creation
func New(layerCount, hidden, in, out int, opts ...Option) (*Network, error) {
	return net.New(layerCount, hidden, in, out, opts...)
}

// NewDigitNetwork creates a 784 -> 10 network with the given hidden layers.
func NewDigitNetwork(hiddenLayers, nodes int, opts ...Option) (*Network, error) {
	return net.New(2+hiddenLayers, nodes, InputSize, OutputSize, opts...)
}

func WithSeed(seed int64) Option {
	return net.WithSeed(seed)
}

func WithRand(rng *rand.Rand) Option {
	return net.WithRand(rng)
}

func WithName(name string) Option {
	return net.WithName(name)
}

// Snapshots
func Load(r io.Reader) (*Network, error) {
	return net.Load(r)
}

func LoadFile(path string) (*Network, error) {
	return net.LoadFile(path)
}

func Decode(r io.Reader) (*Network, error) {
	return net.Decode(r)
}

func Unmarshal(data []byte) (*Network, error) {
	return net.Unmarshal(data)
}

// Encoding
func DigitToFloats(d int) []float32 {
	return encoding.DigitToFloats(d)
}

func FloatsToDigit(v []float32) int {
	return encoding.FloatsToDigit(v)
}

// Data
func LoadIDX(imagePath, labelPath string, limit int) ([]Sample, error) {
	return dataset.LoadIDX(imagePath, labelPath, limit)
}

func LoadCSV(path string, limit int) ([]Sample, error) {
	return dataset.LoadCSV(path, limit)
}

func LoadPNG(path string) (Sample, error) {
	return dataset.LoadPNG(path)
}

func LoadPNGDir(dir string) ([]Sample, error) {
	return dataset.LoadPNGDir(dir)
}

func FromBitmap(pix []byte, bytesPerPixel int) []float32 {
	return dataset.FromBitmap(pix, bytesPerPixel)
}

// Training
func NewTrainer(n *Network, rng *rand.Rand, callbacks ...Callback) *Trainer {
	return trainer.New(n, rng, callbacks...)
}

func NewLogger(w io.Writer) Callback {
	return trainer.NewLogger(w)
}

func NewCSVLogger(filename string, append bool, interval int) Callback {
	return trainer.NewCSVLogger(filename, append, interval)
}

func NewModelCheckpoint(filename string, interval int, log io.Writer) Callback {
	return trainer.NewModelCheckpoint(filename, interval, log)
}

func NewStepLR(initialLR float32, stepSize int, gamma float32) Scheduler {
	return opt.NewStepLR(initialLR, stepSize, gamma)
}

func NewReduceLROnPlateau(initialLR, factor float32, patience int, threshold float64, minLR float32) Scheduler {
	return opt.NewReduceLROnPlateau(initialLR, factor, patience, threshold, minLR)
}

// Evaluate reports accuracy and MSE of n over samples.
func Evaluate(n *Network, samples []Sample) (Report, error) {
	return metrics.Evaluate(n, samples)
}
