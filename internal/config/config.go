// Package config holds the startup settings of the digitnet command.
package config

import (
	"errors"
	"flag"
	"fmt"
)

// Config holds startup configuration.
type Config struct {
	TrainImages string
	TrainLabels string
	TrainCSV    string // MNIST CSV file, used instead of the IDX pair when set
	HoldOut     float64
	Network     string // snapshot loaded at startup
	Limit       int    // max samples to read, 0 for all
	Seed        int64  // 0 seeds from the clock
	Hidden      int    // hidden layers of the fallback network
	Nodes       int    // nodes per hidden layer of the fallback network
	Window      int
	Decay       float64 // learning rate factor applied every DecayEvery steps, 1 disables
	DecayEvery  int
	LogFile     string // CSV progress log, empty to disable
	Checkpoint  string // best-accuracy snapshot path, empty to disable
	CheckEvery  int
}

// Default returns the configuration used when no flags are given.
func Default() Config {
	return Config{
		TrainImages: "train-images.idx3-ubyte",
		TrainLabels: "train-labels.idx1-ubyte",
		Network:     "pre_trained.bin",
		Hidden:      1,
		Nodes:       32,
		Window:      100,
		Decay:       1,
		DecayEvery:  10000,
		CheckEvery:  1000,
	}
}

// RegisterFlags binds the configuration fields to fs.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.TrainImages, "images", c.TrainImages, "MNIST image file (IDX, optionally gzipped)")
	fs.StringVar(&c.TrainLabels, "labels", c.TrainLabels, "MNIST label file (IDX, optionally gzipped)")
	fs.StringVar(&c.TrainCSV, "csv", c.TrainCSV, "MNIST CSV file (label first), replaces -images/-labels")
	fs.Float64Var(&c.HoldOut, "holdout", c.HoldOut, "Fraction of samples kept aside for test and eval")
	fs.StringVar(&c.Network, "network", c.Network, "Network snapshot to load at startup")
	fs.IntVar(&c.Limit, "limit", c.Limit, "Maximum number of samples to load (0 = all)")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Random seed (0 = time based)")
	fs.IntVar(&c.Hidden, "hidden", c.Hidden, "Hidden layers of the network created when none is loaded")
	fs.IntVar(&c.Nodes, "nodes", c.Nodes, "Nodes per hidden layer of the network created when none is loaded")
	fs.IntVar(&c.Window, "window", c.Window, "Samples covered by the running accuracy")
	fs.Float64Var(&c.Decay, "decay", c.Decay, "Learning rate decay factor (1 = constant rate)")
	fs.IntVar(&c.DecayEvery, "decay-every", c.DecayEvery, "Training steps between learning rate decays")
	fs.StringVar(&c.LogFile, "log", c.LogFile, "CSV file for training progress")
	fs.StringVar(&c.Checkpoint, "checkpoint", c.Checkpoint, "Save the best network seen during training to this file")
	fs.IntVar(&c.CheckEvery, "checkpoint-every", c.CheckEvery, "Training steps between checkpoint checks")
}

// Parse builds a configuration from command line arguments.
func Parse(name string, args []string) (Config, error) {
	c := Default()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	c.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the configuration for values the command cannot use.
func (c Config) Validate() error {
	if (c.TrainImages == "") != (c.TrainLabels == "") {
		return errors.New("images and labels must be given together")
	}
	if c.HoldOut < 0 || c.HoldOut >= 1 {
		return fmt.Errorf("holdout must be in [0, 1), got %g", c.HoldOut)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", c.Limit)
	}
	if c.Hidden < 1 {
		return fmt.Errorf("hidden layer count must be positive, got %d", c.Hidden)
	}
	if c.Nodes < 1 {
		return fmt.Errorf("node count must be positive, got %d", c.Nodes)
	}
	if c.Window < 1 {
		return fmt.Errorf("window must be positive, got %d", c.Window)
	}
	if c.Decay <= 0 || c.Decay > 1 {
		return fmt.Errorf("decay must be in (0, 1], got %g", c.Decay)
	}
	if c.Decay < 1 && c.DecayEvery < 1 {
		return fmt.Errorf("decay interval must be positive, got %d", c.DecayEvery)
	}
	if c.Checkpoint != "" && c.CheckEvery < 1 {
		return fmt.Errorf("checkpoint interval must be positive, got %d", c.CheckEvery)
	}
	return nil
}
