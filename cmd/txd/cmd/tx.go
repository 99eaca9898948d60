package cmd

import (
	"fmt"

	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/spf13/cobra"

	"github.com/tokenize-x/tx-chain/v6/app"
	ibctypes "github.com/tokenize-x/tx-chain/v6/x/ibc/types"
)

const (
	flagNode       = "node"
	defaultNodeURL = "tcp://127.0.0.1:26657"
)

// newTxCmd builds the "tx" subcommand tree. spec.md §6 asks only for a
// recovery-message broadcaster; it does not ask for (and the module's
// Open Questions explicitly decline to invent) any signing or
// governance-authorization scheme, so this submits MsgRecoverClient
// unsigned, same as app.DecodeTx accepts it.
func newTxCmd() *cobra.Command {
	txCmd := &cobra.Command{
		Use:   "tx",
		Short: "construct and broadcast transactions",
	}
	txCmd.PersistentFlags().String(flagNode, defaultNodeURL, "CometBFT RPC endpoint to broadcast against")
	txCmd.AddCommand(newRecoverClientCmd())
	return txCmd
}

func newRecoverClientCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover-client [subject-client-id] [substitute-client-id]",
		Short: "broadcast a MsgRecoverClient replacing subject's state with substitute's",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := cmd.Flags().GetString(flagNode)
			if err != nil {
				return err
			}
			msg := ibctypes.MsgRecoverClient{
				SubjectClientID:    args[0],
				SubstituteClientID: args[1],
			}
			raw, err := app.EncodeTx(msg)
			if err != nil {
				return fmt.Errorf("txd: encode MsgRecoverClient: %w", err)
			}

			client, err := rpchttp.New(node, "/websocket")
			if err != nil {
				return fmt.Errorf("txd: connect to %s: %w", node, err)
			}

			result, err := client.BroadcastTxSync(cmd.Context(), cmttypes.Tx(raw))
			if err != nil {
				return fmt.Errorf("txd: broadcast tx: %w", err)
			}
			if result.Code != 0 {
				return fmt.Errorf("txd: tx rejected by CheckTx: code %d: %s", result.Code, result.Log)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recover-client broadcast: hash=%s\n", result.Hash)
			return nil
		},
	}
}
