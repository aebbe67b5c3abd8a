package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gureli35/url-kisaltici/internal/app"
	"github.com/gureli35/url-kisaltici/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	return app.Run(ctx, cfg)
}
