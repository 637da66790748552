package main

import "github.com/tanq16/grabbit/cmd"

func main() {
	cmd.Execute()
}
