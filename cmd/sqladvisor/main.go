// Command sqladvisor analyzes SQL SELECT statements against a live database
// catalog and prints ranked index recommendations.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
