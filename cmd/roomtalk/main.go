package main

import "github.com/corvino/roomtalk/internal/cli"

func main() {
	cli.Execute()
}
