package main

import (
	"os"

	"github.com/Harshitk-cp/mnemo/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
