package main

import "xnftctl/cmd"

func main() {
	cmd.Execute()
}
