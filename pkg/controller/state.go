package controller

import (
	"time"

	"xnftctl/pkg/signer"
	"xnftctl/pkg/wallet"
	"xnftctl/pkg/wasm"
)

// Op identifies one of the user-triggered flows.
type Op string

const (
	OpSupply   Op = "supply"
	OpOwned    Op = "owned"
	OpMint     Op = "mint"
	OpTransfer Op = "transfer"
)

// Ops lists every flow in display order.
var Ops = []Op{OpSupply, OpOwned, OpMint, OpTransfer}

// Status is the status slot of a single flow.
type Status struct {
	Pending    int       `json:"pending"`
	Issued     uint64    `json:"issued"`
	Applied    uint64    `json:"applied"`
	LastError  string    `json:"lastError,omitempty"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// Loading reports whether at least one request of the flow is awaiting a response.
func (s Status) Loading() bool {
	return s.Pending > 0
}

// Transaction is the last successful mint or transfer.
type Transaction struct {
	Kind      Op     `json:"kind"`
	TokenID   string `json:"tokenId"`
	Recipient string `json:"recipient,omitempty"`
	signer.Result
}

// Draft is the pending transfer input. It is consumed but not cleared by Transfer.
type Draft struct {
	TokenID   string `json:"tokenId"`
	Recipient string `json:"recipient"`
}

// State is a point-in-time copy of everything the controller holds.
// Version increases with every change, so consumers receiving snapshots
// asynchronously can drop ones older than what they already rendered.
type State struct {
	Version      uint64          `json:"version"`
	Account      *wallet.Account `json:"account,omitempty"`
	ModalVisible bool            `json:"modalVisible"`
	Supply       *wasm.Count     `json:"supply,omitempty"`
	Owned        *int            `json:"owned,omitempty"`
	LastTx       *Transaction    `json:"lastTx,omitempty"`
	Draft        Draft           `json:"draft"`
	Status       map[Op]Status   `json:"status"`
	QueryReady   bool            `json:"queryReady"`
	SignerReady  bool            `json:"signerReady"`
}

// Loading reports whether op has a request in flight.
func (s State) Loading(op Op) bool {
	return s.Status[op].Loading()
}

// Busy reports whether any flow has a request in flight.
func (s State) Busy() bool {
	for _, st := range s.Status {
		if st.Loading() {
			return true
		}
	}
	return false
}
