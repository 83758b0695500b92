// Package main provides the entry point for the textindex CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Aman-CERP/textindex/cmd/textindex/cmd"
	ierrors "github.com/Aman-CERP/textindex/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ierrors.FormatForCLI(err))
		os.Exit(1)
	}
}
