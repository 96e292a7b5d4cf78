package main

import "github.com/dot5enko/coltoolbox/cmd"

func main() {
	cmd.Execute()
}
