package main

import "github.com/aryanpingle/thecodingtrain.com/cmd"

func main() {
	cmd.Execute()
}
