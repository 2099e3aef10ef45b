package main

import (
	"os"

	"github.com/tessro/jlsvc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
