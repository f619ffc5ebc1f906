// Package app implements the line-oriented command interpreter around the
// active digit network.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/FlavioCFOliveira/digitnet/internal/config"
	"github.com/FlavioCFOliveira/digitnet/internal/dataset"
	"github.com/FlavioCFOliveira/digitnet/internal/encoding"
	"github.com/FlavioCFOliveira/digitnet/internal/metrics"
	"github.com/FlavioCFOliveira/digitnet/internal/net"
	"github.com/FlavioCFOliveira/digitnet/internal/opt"
	"github.com/FlavioCFOliveira/digitnet/internal/trainer"
)

// App owns the active network and the loaded sample set. All access goes
// through a single command loop.
type App struct {
	cfg     config.Config
	net     *net.Network
	samples []dataset.Sample
	heldOut []dataset.Sample
	rng     *rand.Rand

	in      io.Reader
	lines   chan string
	scanErr error
	out     io.Writer
}

// New creates an App reading commands from in and writing to out.
func New(cfg config.Config, in io.Reader, out io.Writer) *App {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &App{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
		in:  in,
		out: out,
	}
}

// Network returns the active network.
func (a *App) Network() *net.Network { return a.net }

// SetNetwork replaces the active network.
func (a *App) SetNetwork(n *net.Network) { a.net = n }

// Samples returns the loaded sample set.
func (a *App) Samples() []dataset.Sample { return a.samples }

// SetSamples replaces the sample set used by train, test and eval and
// clears any held-out set.
func (a *App) SetSamples(s []dataset.Sample) {
	a.samples = s
	a.heldOut = nil
}

// HeldOut returns the samples kept aside from training.
func (a *App) HeldOut() []dataset.Sample { return a.heldOut }

// evalSet returns the held-out samples, or the training set when none are
// kept aside.
func (a *App) evalSet() []dataset.Sample {
	if len(a.heldOut) > 0 {
		return a.heldOut
	}
	return a.samples
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// Init loads the training set and the startup network named in the
// configuration. Failures are reported and never fatal; without a loadable
// snapshot a fresh network is created.
func (a *App) Init() {
	var samples []dataset.Sample
	var err error
	switch {
	case a.cfg.TrainCSV != "":
		samples, err = dataset.LoadCSV(a.cfg.TrainCSV, a.cfg.Limit)
	case a.cfg.TrainImages != "":
		samples, err = dataset.LoadIDX(a.cfg.TrainImages, a.cfg.TrainLabels, a.cfg.Limit)
	}
	if err != nil {
		a.printf("Error loading training set: %v\n", err)
	} else if len(samples) > 0 {
		a.samples, a.heldOut = dataset.Split(samples, float32(1-a.cfg.HoldOut))
		a.println("Training set loaded.")
		if len(a.heldOut) > 0 {
			a.printf("%d samples held out for test and eval.\n", len(a.heldOut))
		}
	}

	if a.cfg.Network != "" {
		a.loadNetwork(a.cfg.Network)
	}
	if a.net == nil {
		a.newNetwork(a.cfg.Hidden, a.cfg.Nodes)
	}
}

// Run executes commands until exit, end of input or ctx is done.
func (a *App) Run(ctx context.Context) error {
	for {
		line, ok := a.readLine(ctx)
		if !ok {
			if err := ctx.Err(); err != nil {
				return err
			}
			return a.scanErr
		}
		if !a.Exec(ctx, line) {
			return nil
		}
	}
}

// readLine returns the next trimmed input line. It returns false at end of
// input or as soon as ctx is done, even while the read is still blocked.
func (a *App) readLine(ctx context.Context) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}
	if a.lines == nil {
		a.lines = make(chan string)
		go a.scan()
	}
	select {
	case line, ok := <-a.lines:
		return strings.TrimSpace(line), ok
	case <-ctx.Done():
		return "", false
	}
}

// scan feeds input lines to readLine until the reader is exhausted.
func (a *App) scan() {
	sc := bufio.NewScanner(a.in)
	for sc.Scan() {
		a.lines <- sc.Text()
	}
	a.scanErr = sc.Err()
	close(a.lines)
}

// prompt writes label and reads one line of input.
func (a *App) prompt(ctx context.Context, label string) string {
	a.printf("%s: ", label)
	line, _ := a.readLine(ctx)
	return line
}

// Exec runs a single command line and reports whether the loop should go on.
func (a *App) Exec(ctx context.Context, line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return true
	}

	switch args[0] {
	case "exit", "quit":
		return false
	case "help":
		a.help()
	case "draw":
		a.println("No drawing surface available.")
	case "input":
		a.input(args[1:])
	case "network":
		a.network(ctx, args[1:])
	case "train":
		a.train(ctx, args[1:])
	case "test":
		a.test(ctx, args[1:])
	case "eval":
		a.eval(args[1:])
	default:
		a.println("Invalid command.")
	}
	return true
}

func (a *App) help() {
	a.println("'input' filename.png: input from a .png file")
	a.println("'input' directory: classify every .png file in a directory")
	a.println("'input' 'drawing': input from drawing window")
	a.println("'network' 'save' filename: save current network")
	a.println("'network' 'load' filename: load network from file")
	a.println("'network' 'export' filename.gguf: export weights as GGUF tensors")
	a.println("'network' 'new': create a new network")
	a.println("'network' 'info': show the current network")
	a.println("'train' [iterations learning_rate]: train network using the MNIST data set")
	a.println("'test' [iterations]: test network using the MNIST data set")
	a.println("'eval' [count]: accuracy and error over the first held-out (or training) samples")
	a.println("'draw': open drawing control")
	a.println("'exit': quit")
}

func (a *App) input(args []string) {
	if len(args) == 0 {
		a.println("No file specified.")
		return
	}
	if args[0] == "drawing" {
		a.println("No drawing window control found.")
		return
	}

	path := args[0]
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		a.inputDir(path)
		return
	}
	if !strings.HasSuffix(strings.ToLower(path), ".png") {
		a.println("Only .png files are supported.")
		return
	}

	s, err := dataset.LoadPNG(path)
	if err != nil {
		a.printf("Error loading %s: %v\n", path, err)
		return
	}
	out, err := a.net.Pass(s.Input)
	if err != nil {
		a.printf("Error: %v\n", err)
		return
	}
	a.println(encoding.FloatsToDigit(out))
}

func (a *App) inputDir(dir string) {
	samples, err := dataset.LoadPNGDir(dir)
	if err != nil {
		a.printf("Error loading %s: %v\n", dir, err)
		return
	}
	if len(samples) == 0 {
		a.println("No .png files found.")
		return
	}
	for _, s := range samples {
		out, err := a.net.Pass(s.Input)
		if err != nil {
			a.printf("%s: %v\n", s.Desc, err)
			return
		}
		a.printf("%s: %d\n", s.Desc, encoding.FloatsToDigit(out))
	}
	a.report(samples)
}

func (a *App) network(ctx context.Context, args []string) {
	if len(args) == 0 {
		a.println("Usage: network new|load|save|export|info")
		return
	}
	switch args[0] {
	case "load":
		if len(args) < 2 {
			a.println("No file specified.")
			return
		}
		a.loadNetwork(args[1])
	case "save":
		if len(args) < 2 {
			a.println("No file specified.")
			return
		}
		if err := a.net.SaveFile(args[1]); err != nil {
			a.println(err)
			a.println("Error saving file.")
			return
		}
		a.printf("Network %s saved.\n", args[1])
	case "export":
		if len(args) < 2 {
			a.println("No file specified.")
			return
		}
		if err := a.net.ExportGGUFFile(args[1]); err != nil {
			a.printf("Error exporting %s: %v\n", args[1], err)
			return
		}
		a.printf("Network exported to %s.\n", args[1])
	case "new":
		hidden, err := strconv.Atoi(a.prompt(ctx, "Hidden layer count"))
		if err != nil || hidden < 1 {
			a.println("Invalid layer count.")
			return
		}
		nodes, err := strconv.Atoi(a.prompt(ctx, "Nodes per hidden layer"))
		if err != nil || nodes < 1 {
			a.println("Invalid node count.")
			return
		}
		a.newNetwork(hidden, nodes)
	case "info":
		a.info()
	default:
		a.println("Invalid command.")
	}
}

// loadNetwork replaces the active network only when the file holds a valid
// digit network.
func (a *App) loadNetwork(path string) {
	n, err := net.LoadFile(path)
	switch {
	case errors.Is(err, net.ErrSnapshotShape):
		a.println("Invalid network")
		return
	case err != nil:
		a.println(err)
		a.printf("Error loading %s\n", path)
		return
	}
	a.net = n
	a.printf("Network %s loaded.\n", path)
}

func (a *App) newNetwork(hidden, nodes int) {
	n, err := net.New(2+hidden, nodes, net.DigitInputSize, net.DigitOutputSize, net.WithRand(a.rng))
	if err != nil {
		a.printf("Error: %v\n", err)
		return
	}
	a.net = n
	a.println("New network created.")
}

func (a *App) info() {
	n := a.net
	sizes := make([]string, 0, n.LayerCount())
	for _, s := range n.Sizes() {
		sizes = append(sizes, strconv.Itoa(s))
	}

	a.printf("Name: %s\n", n.Name())
	a.printf("Hidden layers: %d\n", n.HiddenLayerCount())
	a.printf("Nodes per hidden layer: %d\n", n.HiddenLayerSize())
	a.printf("Layers: %s\n", strings.Join(sizes, "-"))
	a.printf("Weights: %d\n", n.WeightCount())
	for i, norm := range n.WeightNorms() {
		a.printf("  layer %d weight norm: %.6f\n", i+1, norm)
	}
}

func (a *App) train(ctx context.Context, args []string) {
	var iterations int
	var rate float64
	var err error

	if len(args) > 0 {
		iterations, err = strconv.Atoi(args[0])
	} else {
		iterations, err = strconv.Atoi(a.prompt(ctx, "Training iterations"))
	}
	if err != nil || iterations < 1 {
		a.println("Invalid iteration count.")
		return
	}

	if len(args) > 1 {
		rate, err = strconv.ParseFloat(args[1], 32)
	} else {
		rate, err = strconv.ParseFloat(a.prompt(ctx, "Learning rate"), 32)
	}
	if err != nil || rate <= 0 {
		a.println("Invalid learning rate.")
		return
	}

	callbacks := a.callbacks()
	if a.cfg.Checkpoint != "" {
		callbacks = append(callbacks, trainer.NewModelCheckpoint(a.cfg.Checkpoint, a.cfg.CheckEvery, a.out))
	}

	var sched opt.Scheduler = opt.NewConstantLR(float32(rate))
	if a.cfg.Decay < 1 {
		sched = opt.NewStepLR(float32(rate), a.cfg.DecayEvery, float32(a.cfg.Decay))
	}
	_, err = a.trainer(callbacks).TrainWithScheduler(ctx, a.samples, iterations, sched)
	a.loopError(err)
}

func (a *App) test(ctx context.Context, args []string) {
	var iterations int
	var err error
	if len(args) > 0 {
		iterations, err = strconv.Atoi(args[0])
	} else {
		iterations, err = strconv.Atoi(a.prompt(ctx, "Testing iterations"))
	}
	if err != nil || iterations < 1 {
		a.println("Invalid iteration count.")
		return
	}

	_, err = a.trainer(a.callbacks()).Test(ctx, a.evalSet(), iterations)
	a.loopError(err)
}

func (a *App) callbacks() []trainer.Callback {
	cbs := []trainer.Callback{trainer.NewLogger(a.out)}
	if a.cfg.LogFile != "" {
		csvLog := trainer.NewCSVLogger(a.cfg.LogFile, true, 10)
		csvLog.Log = a.out
		cbs = append(cbs, csvLog)
	}
	return cbs
}

func (a *App) trainer(callbacks []trainer.Callback) *trainer.Trainer {
	t := trainer.New(a.net, a.rng, callbacks...)
	t.SetWindow(a.cfg.Window)
	return t
}

func (a *App) loopError(err error) {
	switch {
	case err == nil:
	case errors.Is(err, trainer.ErrEmptySet):
		a.println("No training set loaded.")
	case errors.Is(err, context.Canceled):
		a.println("Interrupted.")
	default:
		a.printf("Error: %v\n", err)
	}
}

func (a *App) eval(args []string) {
	set := a.evalSet()
	if len(set) == 0 {
		a.println("No training set loaded.")
		return
	}
	count := len(set)
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			a.println("Invalid sample count.")
			return
		}
		count = min(n, count)
	}
	a.report(set[:count])
}

func (a *App) report(samples []dataset.Sample) {
	r, err := metrics.Evaluate(a.net, samples)
	if err != nil {
		a.printf("Error: %v\n", err)
		return
	}
	if r.Samples == 0 {
		a.println("No labelled samples.")
		return
	}
	a.printf("Accuracy: %.2f%% (%d/%d), MSE: %.4f ± %.4f\n",
		r.Accuracy*100, r.Correct, r.Samples, r.MeanMSE, r.StdMSE)
}
