// Package main is the entry point for the agscogs bot.
package main

import (
	"fmt"
	"os"

	"github.com/BJPickles/AGSCogs-sub000/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
