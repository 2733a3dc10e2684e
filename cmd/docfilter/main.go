package main

import (
	"os"

	"github.com/accumate/docfilter/cmd/docfilter/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
