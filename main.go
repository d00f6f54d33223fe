package main

import (
	"github.com/samtett/IEP-Goal-Generator/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
