// digitnet: interactive trainer and classifier for handwritten digits.
//
// Usage:
//
//	digitnet -images=train-images.idx3-ubyte -labels=train-labels.idx1-ubyte -network=pre_trained.bin
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/FlavioCFOliveira/digitnet/internal/app"
	"github.com/FlavioCFOliveira/digitnet/internal/config"
)

func main() {
	cfg, err := config.Parse(os.Args[0], os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := app.New(cfg, os.Stdin, os.Stdout)
	a.Init()
	fmt.Println("Type 'help' for a list of commands.")

	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
