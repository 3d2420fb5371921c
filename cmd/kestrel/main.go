package main

import (
	"os"

	"github.com/kestrelhq/kestrel/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
