package main

import "github.com/LeJamon/goAMM/internal/cli"

func main() {
	cli.Execute()
}
