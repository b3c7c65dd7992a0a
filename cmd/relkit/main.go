package main

import (
	"github.com/nuvion/relkit/pkg/cmd"
)

func main() {
	cmd.Execute()
}
