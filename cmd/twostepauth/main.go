package main

import (
	"os"

	"github.com/kentakayama/two-step-auth/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
