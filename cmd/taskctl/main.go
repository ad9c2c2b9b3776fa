package main

import (
	"fmt"
	"os"

	"github.com/benvon/smart-tasks/cmd/taskctl/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
