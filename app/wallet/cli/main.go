package main

import "github.com/meowchain/meowchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
