package main

import "github.com/CosmoTheDev/prreview-agent/cmd"

func main() {
	cmd.Execute()
}
