// Command vizctl is the CLI companion to the viewer data server: it
// renders view-config documents and launch URLs from a dataset manifest.
package main

import (
	"os"

	"github.com/crossviz/go-viewer-backend/cmd/vizctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
