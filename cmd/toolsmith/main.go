package main

import "toolsmith/internal/cli"

func main() {
	cli.Execute()
}
