// stovewatch detects cooking-duration expressions in recipe text and
// runs each as an independently controllable countdown timer.
//
// Usage:
//
//	stovewatch detect <recipe-file>
//	stovewatch cook <recipe-file>
//	stovewatch serve [--addr :8080]
package main

import (
	"os"

	"github.com/kbenzar/stovewatch/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
