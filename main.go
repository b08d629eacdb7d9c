package main

import "benlowery/agentctl/cmd"

func main() {
	cmd.Execute()
}
