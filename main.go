package main

import "github.com/binary-star-near/nearcrowd-contract/cmd"

func main() {
	cmd.Execute()
}
