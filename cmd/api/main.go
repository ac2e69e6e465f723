package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/tabsplit/tabsplit-backend/internal/cli"
	"github.com/tabsplit/tabsplit-backend/internal/infrastructure/config"
)

func main() {
	// Load .env file if present; real environment still wins.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	flags := cli.ParseServeFlags()
	cfg := config.LoadOrEnvWithPath(flags.Config)

	if err := cli.RunServe(cfg, flags); err != nil {
		log.Printf("server error: %v", err)
		os.Exit(1)
	}
}
