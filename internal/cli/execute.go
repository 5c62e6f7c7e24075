package cli

import (
	"fmt"
	"os"
)

// Execute wires commands and runs Cobra.
func Execute(build BuildInfo) {
	root := NewRootCmd(build)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
