// Package main provides the entry point for the warden CLI.
package main

import (
	"fmt"
	"os"

	"github.com/warden-ai/warden/cmd/warden/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
