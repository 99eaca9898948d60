package cmd

import (
	"fmt"
	"net"
	"os"

	"cosmossdk.io/log"
	abciserver "github.com/cometbft/cometbft/abci/server"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"

	"github.com/tokenize-x/tx-chain/v6/app"
	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/x/bank/keeper"
	ibckeeper "github.com/tokenize-x/tx-chain/v6/x/ibc/keeper"
)

func newStartCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "run the ABCI application and gRPC query server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, v)
		},
	}
}

func runStart(cmd *cobra.Command, v *viper.Viper) error {
	logger := newLogger(v)

	router := module.NewRouter()
	if err := router.Register(keeper.New()); err != nil {
		return fmt.Errorf("txd: register bank module: %w", err)
	}
	ibcKeeper := ibckeeper.New(nil)
	if err := router.Register(&ibcKeeper); err != nil {
		return fmt.Errorf("txd: register ibc module: %w", err)
	}

	agg := app.New(router, 0, logger)
	abciApp := app.NewABCIApplication(agg, app.DecodeTx, logger)

	abciAddr := net.JoinHostPort(v.GetString(FlagHost), v.GetString(FlagPort))
	abciSrv := abciserver.NewSocketServer("tcp://"+abciAddr, abciApp)
	abciSrv.SetLogger(cmtlog.NewTMLogger(cmtlog.NewSyncWriter(cmd.OutOrStdout())))
	if err := abciSrv.Start(); err != nil {
		return fmt.Errorf("txd: start ABCI server on %s: %w", abciAddr, err)
	}
	defer abciSrv.Stop() //nolint:errcheck // best-effort on shutdown

	grpcAddr := net.JoinHostPort(v.GetString(FlagHost), fmt.Sprint(v.GetInt(FlagGRPCPort)))
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("txd: listen for gRPC on %s: %w", grpcAddr, err)
	}
	grpcSrv := app.NewGRPCServer(agg, grpc.ReadBufferSize(v.GetInt(FlagReadBufSize)))

	logger.Info("txd started", "abci", abciAddr, "grpc", grpcAddr)
	return grpcSrv.Serve(lis)
}

// newLogger builds the cosmossdk.io/log logger handed to the aggregator
// and the ABCI adapter (SPEC_FULL.md §6 Logging). --quiet silences
// everything but errors and takes precedence over --verbose.
func newLogger(v *viper.Viper) log.Logger {
	if v.GetBool(FlagQuiet) {
		return log.NewCustomLogger(zerolog.New(os.Stderr).Level(zerolog.ErrorLevel))
	}
	if v.GetBool(FlagVerbose) {
		return log.NewCustomLogger(zerolog.New(os.Stderr).Level(zerolog.DebugLevel))
	}
	return log.NewLogger(os.Stderr)
}
