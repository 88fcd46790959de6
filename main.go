package main

import "docbridge/cmd"

func main() {
	cmd.Execute()
}
