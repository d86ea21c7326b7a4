package main

import "github.com/dgallion1/docview/internal/cli"

func main() {
	cli.Execute()
}
