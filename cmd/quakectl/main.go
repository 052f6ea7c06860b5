package main

import (
	"fmt"
	"os"

	"github.com/couchcryptid/quake-watch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "quakectl:", err)
		os.Exit(1)
	}
}
