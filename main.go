package main

import (
	"os"

	"github.com/ziadkadry99/soassoc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
