// Command ragbank answers questions about bank customer data and regulations.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/ragbank/internal/adapters/driving/cli"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
