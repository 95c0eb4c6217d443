package main

import "bookcatalog/cmd"

func main() {
	cmd.Execute()
}
