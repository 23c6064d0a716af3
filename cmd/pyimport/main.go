package main

import "pyimport/internal/cli"

func main() {
	cli.Execute()
}
