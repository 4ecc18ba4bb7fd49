package main

import "github.com/rusackas/haas-addon/cmd"

func main() {
	cmd.Execute()
}
