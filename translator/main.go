package main

import "github.com/zachspang/asciimovie/translator/cmd"

func main() {
	cmd.Execute()
}
