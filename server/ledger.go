package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"ledger-rpc/message"
)

// Ledger is the state behind a stub node. Each accepted computation is sealed into its
// own block at index 0; block 0 is an empty genesis block. The "output" of a computation
// is its own job document, base64 encoded, standing in for a ciphertext.
// The wallet balance lives in memory only.
type Ledger struct {
	mu      sync.Mutex
	balance uint64
	blocks  BlockStore
}

// NewLedger returns a ledger whose blocks are kept in memory.
func NewLedger(balance uint64) *Ledger {
	return NewLedgerWithStore(balance, NewMemoryStore())
}

func NewLedgerWithStore(balance uint64, store BlockStore) *Ledger {
	return &Ledger{balance: balance, blocks: store}
}

// Register installs the ledger's handlers on svr.
func (l *Ledger) Register(svr *Server) {
	svr.Handle(message.TypeHello, l.Hello)
	svr.Handle(message.TypeTransaction, l.Transaction)
	svr.Handle(message.TypeComputation, l.Computation)
	svr.Handle(message.TypeOutput, l.Output)
}

// currentBalance is read by tests.
func (l *Ledger) currentBalance() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

func (l *Ledger) Hello(ctx context.Context, req message.Request) *message.Response {
	return &message.Response{Status: message.StatusOK, Message: "hi"}
}

func (l *Ledger) Transaction(ctx context.Context, req message.Request) *message.Response {
	tx, ok := req.(message.Transaction)
	if !ok || tx.Amount == 0 {
		return &message.Response{Status: message.StatusBadRequest}
	}
	if _, err := base64.StdEncoding.DecodeString(tx.RecipientPublicKey); err != nil || tx.RecipientPublicKey == "" {
		return &message.Response{Status: message.StatusBadRequest, Message: "recipient_public_key is not valid base64"}
	}
	if tx.Fee > math.MaxUint64-tx.Amount {
		return &message.Response{Status: message.StatusBadRequest, Message: "amount overflow"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	cost := tx.Amount + tx.Fee
	if cost > l.balance {
		return &message.Response{Status: message.StatusPaymentRequired, Message: "insufficient funds"}
	}
	l.balance -= cost
	return &message.Response{Status: message.StatusOK}
}

func (l *Ledger) Computation(ctx context.Context, req message.Request) *message.Response {
	comp, ok := req.(message.Computation)
	if !ok {
		return &message.Response{Status: message.StatusBadRequest}
	}
	var job map[string]json.RawMessage
	if err := json.Unmarshal(comp.Raw, &job); err != nil || job == nil {
		return &message.Response{Status: message.StatusInternalServerError, Message: "computation must be a JSON object"}
	}

	height, err := l.blocks.Seal(comp.Raw)
	if err != nil {
		return &message.Response{Status: message.StatusInternalServerError, Message: err.Error()}
	}
	return &message.Response{
		Status:  message.StatusOK,
		Message: fmt.Sprintf("stored at block %d index 0", height),
	}
}

func (l *Ledger) Output(ctx context.Context, req message.Request) *message.Response {
	q, ok := req.(message.OutputQuery)
	if !ok {
		return &message.Response{Status: message.StatusBadRequest}
	}

	out, err := l.blocks.Computation(q.BlockHeight, q.ComputationIndex)
	switch {
	case errors.Is(err, ErrNotFound):
		return &message.Response{Status: message.StatusNotFound, Message: "not found"}
	case err != nil:
		return &message.Response{Status: message.StatusInternalServerError, Message: err.Error()}
	}
	return &message.Response{
		Status: message.StatusOK,
		Output: base64.StdEncoding.EncodeToString(out),
	}
}
