package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	ironfrontcmd "github.com/louisbranch/ironfront/internal/cmd/ironfront"
	"github.com/louisbranch/ironfront/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := ironfrontcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	if err := ironfrontcmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
