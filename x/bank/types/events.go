package types

import "github.com/tokenize-x/tx-chain/v6/internal/module"

// EventTypeTransfer is emitted by a successful MsgSend (spec.md §4.6).
const EventTypeTransfer = "transfer"

// NewTransferEvent builds the transfer{from,to,amount} event spec.md §4.6
// requires.
func NewTransferEvent(from, to, amount string) module.Event {
	return module.NewEvent(
		EventTypeTransfer,
		module.Attr("from", from),
		module.Attr("to", to),
		module.Attr("amount", amount),
	)
}
