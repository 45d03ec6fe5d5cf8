package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mentorship/internal/cli"
	"mentorship/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, cfg, cli.OpenStore, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
