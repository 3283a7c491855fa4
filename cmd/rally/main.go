package main

import "github.com/okian/rally/internal/cli"

func main() {
	cli.Execute()
}
