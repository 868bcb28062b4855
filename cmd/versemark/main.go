package main

import (
	"os"

	"github.com/versemark/versemark/internal/client/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
