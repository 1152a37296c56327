package contract

import (
	apperrors "github.com/binary-star-near/nearcrowd-contract/internal/errors"
)

// Params fixes the policy knobs of a fresh contract. Admin is the single
// account allowed to manage tasksets, membership and reviews; it is explicit
// configuration, checked per call.
type Params struct {
	Admin AccountID

	// AssignmentDeadline is how long a holder may sit on an assignment, in
	// nanoseconds, before an expiry sweep may reclaim it.
	AssignmentDeadline uint64

	// RetainResolved keeps reviewed task records for audit instead of
	// discarding them once resolved.
	RetainResolved bool
}

// Contract is the whole ledger program state. One value serializes to one
// snapshot; the host applies calls against it strictly one at a time, so no
// internal locking exists and every call is atomic by construction.
type Contract struct {
	Admin              AccountID        `json:"admin"`
	AssignmentDeadline uint64           `json:"assignment_deadline"`
	RetainResolved     bool             `json:"retain_resolved"`
	LastCallAt         uint64           `json:"last_call_at"`
	Tasksets           *TasksetRegistry `json:"tasksets"`
	Accounts           *AccountRegistry `json:"accounts"`
}

func New(p Params) *Contract {
	return &Contract{
		Admin:              p.Admin,
		AssignmentDeadline: p.AssignmentDeadline,
		RetainResolved:     p.RetainResolved,
		Tasksets:           NewTasksetRegistry(),
		Accounts:           NewAccountRegistry(),
	}
}

// CallContext is what the host supplies for one call: the caller identity and
// one consistent instant, monotonically non-decreasing across calls. The core
// never reads a clock itself.
type CallContext struct {
	Caller AccountID
	Now    uint64
}

func (c *Contract) requireAdmin(ctx CallContext) error {
	if ctx.Caller != c.Admin {
		return apperrors.ErrPermissionDenied
	}
	return nil
}

// requireWorker authorizes a whitelisted, not banned caller and returns its
// record.
func (c *Contract) requireWorker(ctx CallContext) (*AccountRecord, error) {
	if !c.Accounts.IsAuthorized(ctx.Caller) {
		return nil, apperrors.ErrPermissionDenied
	}
	return c.Accounts.Get(ctx.Caller), nil
}

func (c *Contract) AddTaskset(ctx CallContext, ordinal uint32, minPrice, maxPrice Uint128, rate uint64) error {
	if err := c.requireAdmin(ctx); err != nil {
		return err
	}
	return c.Tasksets.Create(ordinal, minPrice, maxPrice, rate, ctx.Now)
}

func (c *Contract) AddTasks(ctx CallContext, ordinal uint32, hashes []TaskHash) error {
	if err := c.requireAdmin(ctx); err != nil {
		return err
	}
	return c.Tasksets.AppendTasks(ordinal, hashes)
}

func (c *Contract) UpdateTasksetPrices(ctx CallContext, ordinal uint32, newMin, newMax Uint128) error {
	if err := c.requireAdmin(ctx); err != nil {
		return err
	}
	return c.Tasksets.UpdatePriceBounds(ordinal, newMin, newMax)
}

func (c *Contract) UpdateMtasksPerSecond(ctx CallContext, ordinal uint32, rate uint64) error {
	if err := c.requireAdmin(ctx); err != nil {
		return err
	}
	return c.Tasksets.UpdateRate(ordinal, rate)
}

func (c *Contract) WhitelistAccount(ctx CallContext, id AccountID) error {
	if err := c.requireAdmin(ctx); err != nil {
		return err
	}
	c.Accounts.Whitelist(id)
	return nil
}

func (c *Contract) BanAccount(ctx CallContext, id AccountID) error {
	if err := c.requireAdmin(ctx); err != nil {
		return err
	}
	c.Accounts.Ban(id)
	return nil
}
