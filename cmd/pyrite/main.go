package main

import (
	"os"

	"pyrite/cmd/pyrite/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
