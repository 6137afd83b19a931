package main

import "github.com/laurelhq/laurels/internal/cli"

func main() {
	cli.Execute()
}
