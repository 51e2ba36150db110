// Command concierge runs the Moon Palace chat widget: as a backend-for-frontend
// HTTP service for the storefront (serve), or as a terminal chat (chat).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
