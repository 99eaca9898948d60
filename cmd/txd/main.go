// Command txd is the chain daemon (C10, SPEC_FULL.md §4.10): a cobra/
// pflag/viper CLI wrapping the application aggregator (C8) behind an ABCI
// server and a gRPC query server, plus the one transaction subcommand
// spec.md §6 calls for.
package main

import (
	"fmt"
	"os"

	"github.com/tokenize-x/tx-chain/v6/cmd/txd/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
