package main

import (
	"fmt"
	"os"

	"ecobank/cmd/ecobankctl/commands"
	"ecobank/internal/cli"
)

func main() {
	cli.LoadEnvFile()

	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
