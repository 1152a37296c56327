// Package gate serializes calls against the ledger state. The replicated
// host's contract is one call at a time; a CallGate enforces that discipline
// for the gateway process (and across processes when backed by Redis).
package gate

import "context"

type CallGate interface {
	Acquire(ctx context.Context) error

	Release(ctx context.Context) error
}
