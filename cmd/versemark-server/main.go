package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/versemark/versemark/internal/server"
	"github.com/versemark/versemark/internal/server/config"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	flag.Parse()

	// Optional .env for local development; the environment wins either way.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
