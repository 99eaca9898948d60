// grpcserver.go implements the gRPC query surface (C9, SPEC_FULL.md §4.9):
// a google.golang.org/grpc.Server exposing the IBC and bank query RPCs
// spec.md §6 lists, backed by Aggregator.Query (which already does the
// work of picking a revision, routing to a module, and attaching an
// ICS-23 proof).
//
// Message types are plain structs implementing Marshal/Unmarshal via
// internal/wire rather than generated protobuf code (no .proto sources
// were available to run protoc against); internal/grpccodec registers
// them under grpc-go's "proto" codec name so they marshal over the wire
// exactly like any other unary RPC payload.
package app

import (
	"context"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	_ "github.com/tokenize-x/tx-chain/v6/internal/grpccodec"
	gogoproto "github.com/cosmos/gogoproto/proto"
	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/tokenize-x/tx-chain/v6/internal/module"
	"github.com/tokenize-x/tx-chain/v6/internal/store"
	"github.com/tokenize-x/tx-chain/v6/internal/wire"
)

// proofQuery is the shape every query RPC in this file shares: a path
// within one module's query namespace, optionally proved, at a revision
// (0 meaning latest).
type proofQuery struct {
	Path     string
	Height   uint64
	Prove    bool
}

func (q *proofQuery) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.String(q.Path)
	w.Uint64(q.Height)
	w.Bool(q.Prove)
	return w.Out(), nil
}

func (q *proofQuery) Unmarshal(b []byte) error {
	r := wire.NewReader(b)
	var err error
	if q.Path, err = r.String(); err != nil {
		return err
	}
	if q.Height, err = r.Uint64(); err != nil {
		return err
	}
	if q.Prove, err = r.Bool(); err != nil {
		return err
	}
	return nil
}

// proofResult is the shared response shape: the raw wire-encoded value
// this module's sub-store holds at Path, plus an optional gogoproto-
// marshaled ics23.CommitmentProof.
type proofResult struct {
	Value  []byte
	Proof  []byte
	Height uint64
}

func (r *proofResult) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Bytes(r.Value)
	w.Bytes(r.Proof)
	w.Uint64(r.Height)
	return w.Out(), nil
}

func (r *proofResult) Unmarshal(b []byte) error {
	rd := wire.NewReader(b)
	var err error
	if r.Value, err = rd.Bytes(); err != nil {
		return err
	}
	if r.Proof, err = rd.Bytes(); err != nil {
		return err
	}
	if r.Height, err = rd.Uint64(); err != nil {
		return err
	}
	return nil
}

// QueryServer answers every registered service's RPCs by delegating to
// Aggregator.Query; the services differ only in which module-prefixed
// path template each RPC builds.
type QueryServer struct {
	agg *Aggregator
}

// NewQueryServer wraps agg for gRPC registration.
func NewQueryServer(agg *Aggregator) *QueryServer { return &QueryServer{agg: agg} }

func (q *QueryServer) resolve(ctx context.Context, path string, prove bool, height uint64) (*proofResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	resp, err := q.agg.Query(module.QueryRequest{
		Path:     path,
		Revision: store.Revision(height),
		Prove:    prove,
	})
	if err != nil {
		return nil, status.Error(grpcCode(err), err.Error())
	}
	out := &proofResult{Value: resp.Value, Height: uint64(resp.Revision)}
	if resp.Proof != nil {
		data, merr := gogoproto.Marshal(resp.Proof)
		if merr != nil {
			return nil, status.Error(codes.Internal, merr.Error())
		}
		out.Proof = data
	}
	return out, nil
}

// grpcCode maps a module query error onto the status code table in
// spec.md §7: unroutable paths and missing entities are NOT_FOUND,
// anything else (codec faults, storage corruption) is Internal.
func grpcCode(err error) codes.Code {
	if errorsmod.IsOf(err, module.ErrQueryNotFound, module.ErrUnroutable) {
		return codes.NotFound
	}
	return codes.Internal
}

// query answers every RPC registered below. The RPCs differ only in the
// module-prefixed path template the caller builds (e.g.
// "/ibc/client_state/{id}" for ClientState), which req.Path already
// carries; the per-path dispatch lives in each module's own Query method
// (x/ibc/keeper/query.go, x/bank/keeper/query.go), keeping this adapter
// free of IBC knowledge.
func (q *QueryServer) query(ctx context.Context, req *proofQuery) (*proofResult, error) {
	return q.resolve(ctx, req.Path, req.Prove, req.Height)
}

func unaryHandler(method func(*QueryServer, context.Context, *proofQuery) (*proofResult, error), fullMethod string) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(proofQuery)
		if err := dec(in); err != nil {
			return nil, err
		}
		qs := srv.(*QueryServer)
		if interceptor == nil {
			return method(qs, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return method(qs, ctx, req.(*proofQuery))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// serviceDesc builds a grpc.ServiceDesc from an ordered RPC name list,
// every method dispatching to the shared query handler. The
// method-descriptor transform is the same shape as the teacher's
// lo.Map/lo.Filter pipelines over static config (x/pse/types/params.go's
// GetNonCommunityClearingAccounts).
func serviceDesc(name string, methods []string) grpc.ServiceDesc {
	return grpc.ServiceDesc{
		ServiceName: name,
		HandlerType: (*QueryServer)(nil),
		Metadata:    fmt.Sprintf("tx-chain/%s/query.proto", name),
		Methods: lo.Map(methods, func(method string, _ int) grpc.MethodDesc {
			return grpc.MethodDesc{
				MethodName: method,
				Handler:    unaryHandler((*QueryServer).query, "/"+name+"/"+method),
			}
		}),
	}
}

// The three IBC query services carry the full RPC lists spec.md §6 pins
// for each of ICS-02/03/04; the bank service mirrors the bank module's
// own two query paths.
var clientQueryDesc = serviceDesc("ibc.core.client.v1.Query", []string{
	"ClientState", "ClientStates", "ConsensusState", "ConsensusStates",
	"ConsensusStateHeights", "ClientParams", "UpgradedClientState", "UpgradedConsensusState",
})

var connectionQueryDesc = serviceDesc("ibc.core.connection.v1.Query", []string{
	"Connection", "Connections", "ClientConnections",
	"ConnectionClientState", "ConnectionConsensusState", "ConnectionParams",
})

var channelQueryDesc = serviceDesc("ibc.core.channel.v1.Query", []string{
	"Channel", "Channels", "ConnectionChannels", "ChannelClientState",
	"PacketCommitment", "PacketCommitments", "PacketReceipt",
	"PacketAcknowledgement", "PacketAcknowledgements",
	"UnreceivedPackets", "UnreceivedAcks",
	"NextSequenceReceive", "NextSequenceSend",
})

var bankQueryDesc = serviceDesc("tx-chain.bank.v1.Query", []string{
	"Balance", "Supply",
})

// NewGRPCServer builds a grpc.Server with every query service above plus
// mandatory server reflection (spec.md §6: "Server reflection is
// mandatory"). opts lets the daemon pass transport tuning through (e.g.
// grpc.ReadBufferSize from the --read-buf-size flag).
func NewGRPCServer(agg *Aggregator, opts ...grpc.ServerOption) *grpc.Server {
	srv := grpc.NewServer(opts...)
	qs := NewQueryServer(agg)
	srv.RegisterService(&clientQueryDesc, qs)
	srv.RegisterService(&connectionQueryDesc, qs)
	srv.RegisterService(&channelQueryDesc, qs)
	srv.RegisterService(&bankQueryDesc, qs)
	reflection.Register(srv)
	return srv
}
