package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/fatih/color"
)

var bad = color.New(color.FgRed)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		bad.Fprintf(os.Stderr, "graphlens: %v\n", err)
		os.Exit(1)
	}
}
