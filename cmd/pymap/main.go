package main

import (
	"os"

	"pymap/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
