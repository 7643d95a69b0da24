package main

import "github.com/cosmos/ics20-harness/cmd"

func main() {
	cmd.Execute()
}
