// Package main provides the entry point for the askdoc CLI.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/askdoc/askdoc/cmd/askdoc/cmd"
)

func main() {
	// A .env in the working directory can carry OPENAI_API_KEY.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
