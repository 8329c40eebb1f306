package main

import "github.com/victorjacobs/go-izzi/cmd"

func main() {
	cmd.Execute()
}
