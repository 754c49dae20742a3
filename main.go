package main

import (
	"os"

	"github.com/OfonoA/campusGuide1/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
