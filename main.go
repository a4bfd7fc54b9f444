package main

import (
	"fmt"
	"os"

	"github.com/forkward/forkward/cmd/cli"
)

func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, "%v\n", executionError)
		os.Exit(1)
	}
}
