package main

import (
	"os"

	"github.com/jam1garner/discord-forge/internal/cli"
)

func main() {
	c := cli.NewCLI()
	os.Exit(c.Run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}
