package main

import "github.com/mathledger/mathledger/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
