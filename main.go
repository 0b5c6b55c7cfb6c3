package main

import (
	"os"

	"github.com/prime3679/bishop-bench/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
