package main

import (
	"os"

	"github.com/vulntor/recog/cmd/recog/commands"
)

func main() {
	if err := commands.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
