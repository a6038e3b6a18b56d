package main

import "Musarty/cmd"

func main() {
	cmd.Execute()
}
