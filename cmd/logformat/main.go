package main

import "github.com/atikulmunna/logformat/internal/cmd"

func main() {
	cmd.Execute()
}
