package main

import (
	"fmt"
	"os"

	"github.com/maastricht-university/pasat-pipeline/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hint := commands.Hint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(commands.ExitCode(err))
	}
}
