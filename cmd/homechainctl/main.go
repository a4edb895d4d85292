// Package main provides a CLI for submitting transactions to a running
// registry and inspecting its state.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	ctlcmd "github.com/louisbranch/homechain/internal/cmd/homechainctl"
	"github.com/louisbranch/homechain/internal/platform/config"
)

func main() {
	cfg, err := ctlcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ctlcmd.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("Error: %v", err)
	}
}
