package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/skataria/specfuse/internal/cli"
)

func main() {
	// Best effort: a missing .env just means the key comes from the
	// environment directly.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
