package main

import "github.com/Prakti/striptease/cmd/striptease/cmd"

func main() {
	cmd.Execute()
}
