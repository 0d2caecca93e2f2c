package main

import "vid2txt/internal/cli"

func main() {
	cli.Execute()
}
