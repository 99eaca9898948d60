// Package cmd builds txd's cobra command tree: a root command carrying
// the global flags spec.md §6 lists, plus the start and tx subcommands
// (start.go, tx.go). Flags are bound through viper with the "TXD" env
// prefix (matching the teacher's own cmd/txd/main.go
// txChainEnvPrefix = "TXD" convention) so every flag can also be set as
// TXD_HOST, TXD_PORT, and so on.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "TXD"

// Flag names shared between start.go and root.go's persistent flag set.
const (
	FlagHost         = "host"
	FlagPort         = "port"
	FlagGRPCPort     = "grpc-port"
	FlagReadBufSize  = "read-buf-size"
	FlagVerbose      = "verbose"
	FlagQuiet        = "quiet"
)

// Default values spec.md §6 pins.
const (
	DefaultHost        = "127.0.0.1"
	DefaultPort        = uint16(26658)
	DefaultGRPCPort    = uint16(9093)
	DefaultReadBufSize = 1048576
)

// NewRootCmd builds the txd command tree.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "txd",
		Short: "tx-chain application daemon",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, v)
		},
	}

	root.PersistentFlags().String(FlagHost, DefaultHost, "address the ABCI and gRPC servers bind to")
	root.PersistentFlags().Uint16(FlagPort, DefaultPort, "ABCI server port")
	root.PersistentFlags().Uint16(FlagGRPCPort, DefaultGRPCPort, "gRPC query server port")
	root.PersistentFlags().Int(FlagReadBufSize, DefaultReadBufSize, "gRPC query server read buffer size, in bytes")
	root.PersistentFlags().BoolP(FlagVerbose, "v", false, "enable debug-level logging")
	root.PersistentFlags().Bool(FlagQuiet, false, "suppress all logging except errors")

	root.AddCommand(newStartCmd(v))
	root.AddCommand(newTxCmd())
	return root
}

// bindFlags wires every persistent flag into v under envPrefix, so unset
// flags fall back to TXD_* environment variables before their pflag
// default (spec.md §6: "bindable via viper env prefix TXD_").
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	var walkErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if walkErr != nil {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			walkErr = err
			return
		}
		if !f.Changed && v.IsSet(f.Name) {
			if err := cmd.Flags().Set(f.Name, v.GetString(f.Name)); err != nil {
				walkErr = err
			}
		}
	})
	return walkErr
}
