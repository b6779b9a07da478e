// Package main is the entry point for the tabmatch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/TFMV/tabmatch/logger"
)

func main() {
	err := newRootCommand().Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
