package main

import "github.com/pfrederiksen/pfr-stats/internal/cli"

func main() {
	cli.Execute()
}
