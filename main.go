package main

import "github.com/tanq16/grablist/cmd"

func main() {
	cmd.Execute()
}
