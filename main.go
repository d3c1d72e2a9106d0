package main

import "github.com/newsquill-labs/newsquill-cli/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
