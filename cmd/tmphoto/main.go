// Package main provides the tmphoto command.
package main

import (
	"os"

	"github.com/sidewinder5675/tm-photo-tools/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
