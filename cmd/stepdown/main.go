package main

import "github.com/mvp-joe/stepdown/internal/cli"

func main() {
	cli.Execute()
}
