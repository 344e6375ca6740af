package main

import (
	"os"

	"restic-backup/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
