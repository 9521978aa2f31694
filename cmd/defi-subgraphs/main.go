package main

import (
	"github.com/streamingfast/defi-subgraphs/cmd/defi-subgraphs/cli"
)

func main() {
	cli.Main()
}
