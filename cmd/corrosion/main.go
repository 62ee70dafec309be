package main

import "github.com/corrosion-lang/corrosion/pkg/cli"

func main() {
	cli.Run()
}
