package main

import (
	"os"

	"github.com/spigell/laborconnect/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
