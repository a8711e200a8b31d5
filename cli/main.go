package main

import (
	"os"

	"github.com/ankit-chaubey/promptscope/core"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		core.PrintError(err.Error())
		os.Exit(1)
	}
}
