// Package main is the entry point for the wallthemes application.
package main

import (
	"os"

	"github.com/jmylchreest/wallthemes/cmd/wallthemes/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
