package main

import "github.com/zachspang/asciimovie/interpreter/cmd"

func main() {
	cmd.Execute()
}
