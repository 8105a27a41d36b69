package main

import (
	"os"

	"github.com/pageza/modelhistory/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
