package main

import "mindplay/internal/cli"

func main() {
	cli.Execute()
}
