package main

import (
	"os"

	"github.com/hexar-io/hexarctl/cmd/hexarctl/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
