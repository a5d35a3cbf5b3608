package main

import "github.com/salt-ha/salt-ha/cmd"

func main() {
	cmd.Execute()
}
