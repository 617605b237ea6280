// Package main is the entry point for the vlantag command line tool.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/vlantag/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
