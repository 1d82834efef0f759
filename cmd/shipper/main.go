package main

import "github.com/cometlabs/shipper/cmd/shipper/cmd"

func main() {
	cmd.Execute()
}
