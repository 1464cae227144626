package main

import (
	"os"

	"github.com/voltguard/chargesim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
