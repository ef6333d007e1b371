package main

import (
	"os"

	"github.com/jmbish04/lightbulb-aquarium/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
