package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/jhaverinen/kutsu/internal/invite/app"
)

func main() {
	seed := flag.Bool("seed", false, "insert sample invitations and exit")
	flag.Parse()

	// Missing .env is fine; real deployments set env vars directly
	_ = godotenv.Load()

	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if *seed {
		if err := application.Seed(context.Background()); err != nil {
			log.Fatalf("failed to seed database: %v", err)
		}
		if err := application.Close(); err != nil {
			log.Fatalf("failed to close after seeding: %v", err)
		}
		return
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
