package contract

import (
	apperrors "github.com/binary-star-near/nearcrowd-contract/internal/errors"
)

// The assignment protocol per (account, taskset):
//
//	Idle -> WaitsForAssignment -> HoldsAssignment -> (InReview on the record) -> Idle
//
// plus the timeout edge HoldsAssignment -> Idle with the task returned to
// Unassigned. Every transition validates fully before touching either
// registry, so a rejected call leaves no partial effect.

// ChangeTaskset selects the caller's working taskset. Any assignment state
// under the previous taskset is discarded; a held task reverts to Unassigned
// so no Assigned record is left without a holder.
func (c *Contract) ChangeTaskset(ctx CallContext, newOrdinal uint32) error {
	acc, err := c.requireWorker(ctx)
	if err != nil {
		return err
	}
	if _, err := c.Tasksets.Get(newOrdinal); err != nil {
		return err
	}

	c.releaseHeldTask(ctx.Caller, acc)

	ord := newOrdinal
	acc.CurrentTaskset = &ord
	acc.Assignment = idleAssignment()
	return nil
}

// ApplyForAssignment quotes the current auction price as the caller's bid and
// starts waiting. Applying into a taskset the caller has not selected, or
// from any state but Idle, is rejected; so is applying when nothing is
// claimable.
func (c *Contract) ApplyForAssignment(ctx CallContext, ordinal uint32) error {
	acc, err := c.requireWorker(ctx)
	if err != nil {
		return err
	}
	ts, err := c.Tasksets.Get(ordinal)
	if err != nil {
		return err
	}
	if acc.CurrentTaskset == nil || *acc.CurrentTaskset != ordinal {
		return apperrors.ErrInvalidState
	}
	if acc.Assignment.Phase != PhaseIdle {
		return apperrors.ErrInvalidState
	}
	if ts.NumUnassigned() == 0 {
		return apperrors.ErrNoCapacity
	}

	acc.Assignment = AssignmentState{
		Phase:       PhaseWaits,
		Bid:         ts.PriceAt(ctx.Now),
		RequestedAt: ctx.Now,
	}
	return nil
}

// ClaimAssignment finalizes a pending application. The bid must equal the
// stored quote exactly; overbidding is rejected, not ignored. On success the
// earliest unassigned record is claimed, the price epoch restarts from now,
// and the result reports whether more unassigned tasks remain.
func (c *Contract) ClaimAssignment(ctx CallContext, ordinal uint32, bid Uint128) (bool, error) {
	acc, err := c.requireWorker(ctx)
	if err != nil {
		return false, err
	}
	ts, err := c.Tasksets.Get(ordinal)
	if err != nil {
		return false, err
	}
	if acc.CurrentTaskset == nil || *acc.CurrentTaskset != ordinal {
		return false, apperrors.ErrInvalidState
	}
	if acc.Assignment.Phase != PhaseWaits {
		return false, apperrors.ErrInvalidState
	}
	if bid.Cmp(acc.Assignment.Bid) != 0 {
		return false, apperrors.ErrBidMismatch
	}

	task := ts.firstUnassigned()
	if task == nil {
		return false, apperrors.ErrNoCapacity
	}

	task.State = TaskAssigned
	task.AccountID = ctx.Caller
	task.Bid = acc.Assignment.Bid
	task.ClaimedAt = ctx.Now

	acc.Assignment = AssignmentState{
		Phase:     PhaseHolds,
		Bid:       task.Bid,
		TaskHash:  task.Hash,
		ClaimedAt: ctx.Now,
	}

	ts.PriceEpochStart = ctx.Now

	return ts.NumUnassigned() > 0, nil
}

// ReturnAssignment is the holder's compensating transition: the held task
// goes back to Unassigned and the account to Idle.
func (c *Contract) ReturnAssignment(ctx CallContext) error {
	acc, err := c.requireWorker(ctx)
	if err != nil {
		return err
	}
	if acc.CurrentTaskset == nil || acc.Assignment.Phase != PhaseHolds {
		return apperrors.ErrInvalidState
	}

	ts, err := c.Tasksets.Get(*acc.CurrentTaskset)
	if err != nil {
		return err
	}
	task := ts.taskHeldBy(ctx.Caller, acc.Assignment.TaskHash)
	if task == nil || task.State != TaskAssigned {
		return apperrors.ErrInvalidState
	}

	resetToUnassigned(task)
	acc.Assignment = idleAssignment()
	return nil
}

// SubmitSolution moves the caller's held task into review. The account keeps
// its hold reference until the admin resolves the review.
func (c *Contract) SubmitSolution(ctx CallContext, ordinal uint32) error {
	acc, err := c.requireWorker(ctx)
	if err != nil {
		return err
	}
	ts, err := c.Tasksets.Get(ordinal)
	if err != nil {
		return err
	}
	if acc.CurrentTaskset == nil || *acc.CurrentTaskset != ordinal {
		return apperrors.ErrInvalidState
	}
	if acc.Assignment.Phase != PhaseHolds {
		return apperrors.ErrInvalidState
	}

	task := ts.taskHeldBy(ctx.Caller, acc.Assignment.TaskHash)
	if task == nil || task.State != TaskAssigned {
		return apperrors.ErrInvalidState
	}

	task.State = TaskInReview
	task.SubmittedAt = ctx.Now
	return nil
}

// ApproveSolution resolves a submitted task. Approval credits the recorded
// bid to the account and bumps its successful counter; rejection bumps the
// failed counter. Either way the account returns to Idle. Resolved records
// are retained or discarded per the configured policy.
func (c *Contract) ApproveSolution(ctx CallContext, ordinal uint32, id AccountID, approved bool) error {
	if err := c.requireAdmin(ctx); err != nil {
		return err
	}
	ts, err := c.Tasksets.Get(ordinal)
	if err != nil {
		return err
	}

	var task *TaskRecord
	for _, t := range ts.Tasks {
		if t.State == TaskInReview && t.AccountID == id {
			task = t
			break
		}
	}
	if task == nil {
		return apperrors.ErrInvalidState
	}

	acc := c.Accounts.ensure(id)
	if approved {
		acc.Balance = acc.Balance.Add(task.Bid)
		acc.Successful++
	} else {
		acc.Failed++
	}
	// Only the hold referring to this exact task is released. The account may
	// have claimed another task since submitting this one.
	if acc.CurrentTaskset != nil && *acc.CurrentTaskset == ordinal &&
		acc.Assignment.Phase == PhaseHolds && acc.Assignment.TaskHash == task.Hash {
		acc.Assignment = idleAssignment()
	}

	if c.RetainResolved {
		task.State = TaskResolved
		task.Approved = approved
		task.ClaimedAt = 0
		task.SubmittedAt = 0
	} else {
		c.discardTask(ts, task)
	}
	return nil
}

// ReturnExpiredAssignments is the admin-triggered lazy sweep: every record
// assigned longer ago than the deadline reverts to Unassigned and its holder
// to Idle. Timeouts are evaluated only here, from stored timestamps and this
// call's now; nothing ticks in the background.
func (c *Contract) ReturnExpiredAssignments(ctx CallContext, ordinal uint32) (int, error) {
	if err := c.requireAdmin(ctx); err != nil {
		return 0, err
	}
	ts, err := c.Tasksets.Get(ordinal)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, t := range ts.Tasks {
		if t.State != TaskAssigned || t.ClaimedAt+c.AssignmentDeadline > ctx.Now {
			continue
		}

		holder := c.Accounts.Get(t.AccountID)
		if holder != nil && holder.Assignment.Phase == PhaseHolds && holder.Assignment.TaskHash == t.Hash {
			holder.Assignment = idleAssignment()
		}
		resetToUnassigned(t)
		reclaimed++
	}
	return reclaimed, nil
}

// releaseHeldTask reverts the task an account holds, if any, when its
// assignment state is about to be discarded.
func (c *Contract) releaseHeldTask(id AccountID, acc *AccountRecord) {
	if acc.CurrentTaskset == nil || acc.Assignment.Phase != PhaseHolds {
		return
	}
	ts, ok := c.Tasksets.Sets[*acc.CurrentTaskset]
	if !ok {
		return
	}
	if task := ts.taskHeldBy(id, acc.Assignment.TaskHash); task != nil && task.State == TaskAssigned {
		resetToUnassigned(task)
	}
}

func (c *Contract) discardTask(ts *Taskset, task *TaskRecord) {
	for i, t := range ts.Tasks {
		if t == task {
			ts.Tasks = append(ts.Tasks[:i], ts.Tasks[i+1:]...)
			return
		}
	}
}

func resetToUnassigned(t *TaskRecord) {
	t.State = TaskUnassigned
	t.AccountID = ""
	t.Bid = Uint128{}
	t.ClaimedAt = 0
	t.SubmittedAt = 0
}
