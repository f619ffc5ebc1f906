package trainer

import (
	"fmt"
	"io"
	"time"

	"github.com/FlavioCFOliveira/digitnet/internal/net"
)

// Callback observes a training or testing loop.
type Callback interface {
	OnBegin(phase Phase, n *net.Network)
	OnStep(p Progress)
	OnEnd(r Result, n *net.Network)
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnBegin(phase Phase, n *net.Network) {}
func (c BaseCallback) OnStep(p Progress)                   {}
func (c BaseCallback) OnEnd(r Result, n *net.Network)      {}

// Logger rewrites a single progress line every Interval steps.
type Logger struct {
	BaseCallback
	W        io.Writer
	Interval int
}

// NewLogger creates a Logger printing every 10 steps.
func NewLogger(w io.Writer) *Logger {
	return &Logger{W: w, Interval: 10}
}

func (c *Logger) OnStep(p Progress) {
	if c.Interval <= 0 || p.Step%c.Interval != 0 {
		return
	}
	fmt.Fprintf(c.W, "\r%s(%d). Accuracy of the last %d samples: %.0f%%   ",
		p.Phase, p.Step, DefaultWindow, p.Accuracy*100)
}

func (c *Logger) OnEnd(r Result, n *net.Network) {
	fmt.Fprintf(c.W, "\n%s done: %d steps, %d correct, last-window accuracy %.1f%% (%s)\n",
		r.Phase, r.Steps, r.Correct, r.Accuracy*100, r.Elapsed.Round(time.Millisecond))
}

// ModelCheckpoint saves the network every Interval training steps when the
// running accuracy is the best seen so far.
type ModelCheckpoint struct {
	BaseCallback
	Filename string
	Interval int
	Log      io.Writer

	best float64
	err  error
}

func NewModelCheckpoint(filename string, interval int, log io.Writer) *ModelCheckpoint {
	return &ModelCheckpoint{
		Filename: filename,
		Interval: interval,
		Log:      log,
		best:     -1,
	}
}

func (c *ModelCheckpoint) OnStep(p Progress) {
	if p.Phase != PhaseTrain || c.Interval <= 0 || (p.Step+1)%c.Interval != 0 {
		return
	}
	if p.Accuracy <= c.best {
		return
	}
	c.best = p.Accuracy
	if err := p.Network.WriteFile(c.Filename); err != nil {
		c.err = err
		if c.Log != nil {
			fmt.Fprintf(c.Log, "\nError saving checkpoint: %v\n", err)
		}
	}
}

// Err returns the last save error, if any.
func (c *ModelCheckpoint) Err() error { return c.err }
