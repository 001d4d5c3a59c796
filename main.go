package main

import (
	"os"

	"github.com/parisxmas/OxiDB/OxiWL/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
