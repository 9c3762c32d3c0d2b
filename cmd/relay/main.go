package main

import (
	"fmt"
	"os"

	"github.com/Vovarama1992/line-intent-relay/cmd/relay/commands"
)

// set by the release build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
