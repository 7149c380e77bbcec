package main

import "sqlbridge/cmd"

func main() {
	cmd.Execute()
}
