package main

import (
	"os"

	"github.com/nestegg-app/nestegg/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
