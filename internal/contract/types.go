// Package contract implements the ledger-hosted task-distribution program:
// tasksets of content-addressed work units, a declining-price auction over
// them, per-account assignment state and lifetime statistics, and the
// admin/whitelist authorization rules. The package holds pure state-transition
// logic; the host supplies caller identity, call time and snapshot storage.
package contract

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// AccountID is the host-supplied opaque caller identifier.
type AccountID string

// TaskHashLen is the fixed length of a task content hash.
const TaskHashLen = 32

// TaskHash identifies one unit of work by its content. On the wire it is a
// JSON array of byte values, matching the host's borsh-style encoding.
type TaskHash [TaskHashLen]byte

func (h TaskHash) MarshalJSON() ([]byte, error) {
	out := make([]int, TaskHashLen)
	for i, b := range h {
		out[i] = int(b)
	}
	return json.Marshal(out)
}

func (h *TaskHash) UnmarshalJSON(data []byte) error {
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return h.fromInts(raw)
}

func (h *TaskHash) fromInts(raw []int) error {
	if len(raw) != TaskHashLen {
		return fmt.Errorf("task hash must be %d bytes, got %d", TaskHashLen, len(raw))
	}
	for i, v := range raw {
		if v < 0 || v > 255 {
			return fmt.Errorf("task hash byte %d out of range: %d", i, v)
		}
		h[i] = byte(v)
	}
	return nil
}

// ParseTaskHash builds a TaskHash from a slice of byte values as they arrive
// in request payloads.
func ParseTaskHash(raw []int) (TaskHash, error) {
	var h TaskHash
	err := h.fromInts(raw)
	return h, err
}

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Uint128 is an unsigned 128-bit token amount. The zero value is zero. On the
// wire it is a decimal string, never a JSON number. Values are immutable;
// arithmetic returns fresh values.
type Uint128 struct {
	n *big.Int
}

func U128FromUint64(v uint64) Uint128 {
	return Uint128{n: new(big.Int).SetUint64(v)}
}

// ParseUint128 decodes a decimal string, rejecting signs, non-digits and
// values above 2^128-1.
func ParseUint128(s string) (Uint128, error) {
	if s == "" {
		return Uint128{}, fmt.Errorf("empty amount")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Uint128{}, fmt.Errorf("not an unsigned decimal: %q", s)
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Cmp(maxUint128) > 0 {
		return Uint128{}, fmt.Errorf("amount out of 128-bit range: %q", s)
	}
	return Uint128{n: n}, nil
}

func (u Uint128) value() *big.Int {
	if u.n == nil {
		return new(big.Int)
	}
	return u.n
}

func (u Uint128) Cmp(o Uint128) int {
	return u.value().Cmp(o.value())
}

func (u Uint128) Add(o Uint128) Uint128 {
	return Uint128{n: new(big.Int).Add(u.value(), o.value())}
}

func (u Uint128) String() string {
	return u.value().String()
}

func (u Uint128) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

func (u *Uint128) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseUint128(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// TaskState is the lifecycle tag of one task record.
type TaskState string

const (
	TaskUnassigned TaskState = "unassigned"
	TaskAssigned   TaskState = "assigned"
	TaskInReview   TaskState = "in_review"
	TaskResolved   TaskState = "resolved"
)

// TaskRecord is one unit of work inside a taskset. AccountID, Bid, ClaimedAt,
// SubmittedAt and Approved are meaningful only for the states that set them;
// transitions clear what they invalidate.
type TaskRecord struct {
	Hash        TaskHash  `json:"hash"`
	State       TaskState `json:"state"`
	AccountID   AccountID `json:"account_id,omitempty"`
	Bid         Uint128   `json:"bid"`
	ClaimedAt   uint64    `json:"claimed_at,omitempty"`
	SubmittedAt uint64    `json:"submitted_at,omitempty"`
	Approved    bool      `json:"approved,omitempty"`
}

// Taskset is an admin-defined, ordinally indexed collection of task records
// sharing one pricing configuration.
type Taskset struct {
	Ordinal         uint32        `json:"ordinal"`
	MinPrice        Uint128       `json:"min_price"`
	MaxPrice        Uint128       `json:"max_price"`
	MtasksPerSecond uint64        `json:"mtasks_per_second"`
	PriceEpochStart uint64        `json:"price_epoch_start"`
	Tasks           []*TaskRecord `json:"tasks"`
}

// AssignmentPhase tags the per-(account, taskset) protocol state.
type AssignmentPhase string

const (
	PhaseIdle  AssignmentPhase = "idle"
	PhaseWaits AssignmentPhase = "waits_for_assignment"
	PhaseHolds AssignmentPhase = "holds_assignment"
)

// AssignmentState is the tagged assignment-protocol state under the account's
// current taskset. Bid/RequestedAt are set in the waits phase; Bid, TaskHash
// and ClaimedAt in the holds phase.
type AssignmentState struct {
	Phase       AssignmentPhase `json:"phase"`
	Bid         Uint128         `json:"bid"`
	RequestedAt uint64          `json:"requested_at,omitempty"`
	TaskHash    TaskHash        `json:"task_hash"`
	ClaimedAt   uint64          `json:"claimed_at,omitempty"`
}

func idleAssignment() AssignmentState {
	return AssignmentState{Phase: PhaseIdle}
}

// AccountRecord carries membership flags, lifetime statistics and the
// assignment state under CurrentTaskset. Banned supersedes Whitelisted for
// authorization. Assignment is meaningless while CurrentTaskset is nil.
type AccountRecord struct {
	Whitelisted    bool            `json:"whitelisted"`
	Banned         bool            `json:"banned"`
	Balance        Uint128         `json:"balance"`
	Successful     uint32          `json:"successful"`
	Failed         uint32          `json:"failed"`
	CurrentTaskset *uint32         `json:"current_taskset,omitempty"`
	Assignment     AssignmentState `json:"assignment"`
}
