package main

import "txconv/cmd"

func main() {
	cmd.Execute()
}
