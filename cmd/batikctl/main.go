package main

import (
	"os"

	"github.com/minangbatik/batikhub/internal/client/cli"
)

func main() {
	os.Exit(cli.Execute())
}
