package main

import "github.com/tempoxyz/tempo-cli/cmd"

func main() {
	cmd.Execute()
}
