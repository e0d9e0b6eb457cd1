package main

import "obdlog/cmd"

func main() {
	cmd.Execute()
}
