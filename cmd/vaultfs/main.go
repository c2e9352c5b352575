package main

import "vaultfs/internal/cli"

func main() {
	cli.Execute()
}
