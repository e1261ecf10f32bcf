package main

import "framepress/cmd"

func main() {
	cmd.Execute()
}
