package main

import (
	"os"

	"github.com/sreenu926/50cube-staging/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
