package main

import (
	"context"
	"log"

	"resumegen/internal/bootstrap"
	"resumegen/internal/shared/config"
)

func main() {
	cfg := config.MustLoad()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	app.StartCleanup(ctx)

	log.Printf("Starting API server on %s", app.Addr)
	if err := app.Router.Run(app.Addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
