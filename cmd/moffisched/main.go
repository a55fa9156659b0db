package main

import "github.com/example/moffi-scheduler/cmd"

func main() {
	cmd.Execute()
}
