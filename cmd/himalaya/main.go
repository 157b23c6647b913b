package main

import "github.com/DEVBOX10/himalaya/internal/cli"

func main() {
	cli.Execute()
}
