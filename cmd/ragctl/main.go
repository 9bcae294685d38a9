package main

import (
	"os"

	"curriculum-rag-be/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
