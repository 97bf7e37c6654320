package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// All logging goes to stderr so stdout stays scriptable.
	log.SetOutput(os.Stderr)

	// Optional .env for API keys; a missing file is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
