// Package main provides the entry point for the sagasu CLI.
package main

import (
	"fmt"
	"os"

	"sagasu/cmd/sagasu/cmd"
	"sagasu/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, errors.FormatForCLI(err))
		os.Exit(1)
	}
}
