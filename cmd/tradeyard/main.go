package main

import (
	"os"

	"github.com/tradeyard/tradeyard/cmd/tradeyard/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
