package main

import "github.com/chrisdamba/golfsim/cmd"

func main() {
	cmd.Execute()
}
