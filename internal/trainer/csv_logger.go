package trainer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/FlavioCFOliveira/digitnet/internal/net"
)

// CSVLogger logs running accuracy to a CSV file every Interval steps.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool
	Interval int
	Log      io.Writer

	file   *os.File
	writer *csv.Writer
	start  time.Time
}

// NewCSVLogger creates a new CSVLogger.
func NewCSVLogger(filename string, append bool, interval int) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   append,
		Interval: interval,
	}
}

func (c *CSVLogger) logf(format string, args ...any) {
	if c.Log != nil {
		fmt.Fprintf(c.Log, format, args...)
	}
}

func (c *CSVLogger) OnBegin(phase Phase, n *net.Network) {
	mode := os.O_CREATE | os.O_WRONLY
	if c.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}

	file, err := os.OpenFile(c.Filename, mode, 0644)
	if err != nil {
		c.logf("CSVLogger: failed to open file %s: %v\n", c.Filename, err)
		return
	}
	c.file = file
	c.writer = csv.NewWriter(file)
	c.start = time.Now()

	// Write header if not appending or if file is empty
	info, err := file.Stat()
	if err == nil && (info.Size() == 0 || !c.Append) {
		c.writer.Write([]string{"phase", "step", "accuracy", "rate", "time_seconds"})
		c.writer.Flush()
	}
}

func (c *CSVLogger) OnStep(p Progress) {
	if c.writer == nil || c.Interval <= 0 || p.Step%c.Interval != 0 {
		return
	}

	record := []string{
		string(p.Phase),
		strconv.Itoa(p.Step),
		fmt.Sprintf("%.4f", p.Accuracy),
		strconv.FormatFloat(float64(p.Rate), 'g', -1, 32),
		fmt.Sprintf("%.2f", time.Since(c.start).Seconds()),
	}
	if err := c.writer.Write(record); err != nil {
		c.logf("CSVLogger: failed to write record: %v\n", err)
	}
	c.writer.Flush()
}

func (c *CSVLogger) OnEnd(r Result, n *net.Network) {
	if c.file != nil {
		c.writer.Flush()
		c.file.Close()
		c.file = nil
		c.writer = nil
	}
}
