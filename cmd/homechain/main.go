package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	homechaincmd "github.com/louisbranch/homechain/internal/cmd/homechain"
)

func main() {
	cfg, err := homechaincmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[HOMECHAIN] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := homechaincmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
