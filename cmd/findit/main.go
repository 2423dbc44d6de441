package main

import "github.com/findit-app/findit/cmd/findit/commands"

func main() {
	commands.Execute()
}
