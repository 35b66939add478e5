package main

import (
	"os"

	"github.com/pritechvior/project-wizard/cmd/pvwizard/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
