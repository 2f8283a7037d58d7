package main

import (
	"os"

	"github.com/rkapoor/screener/cmd/screener/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
