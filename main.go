package main

import (
	"os"

	"github.com/imishinist/runsum/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
