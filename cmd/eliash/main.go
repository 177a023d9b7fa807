package main

import (
	"os"

	"github.com/marcelocantos/eliash/internal/executor"
)

var version = "dev"

func main() {
	// Spawned children re-enter here and never return from Init.
	executor.Init()
	os.Exit(run())
}

func run() int {
	return resolveError(os.Stderr, rootCmd.Execute())
}
