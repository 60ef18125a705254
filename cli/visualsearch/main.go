package main

import (
	"fmt"
	"os"

	visualsearchcmder "github.com/papercomputeco/visualsearch/cmd/visualsearch"
)

func main() {
	cmd := visualsearchcmder.NewVisualSearchCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
