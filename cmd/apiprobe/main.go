package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gaborage/apitest/internal/commands"
)

var version = "dev" // Will be set during build

func main() {
	rootCmd := commands.NewProbeCommand(version)
	rootCmd.AddCommand(
		commands.NewDoctorCommand(),
		commands.NewVersionCommand(version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
