package contract

import (
	"encoding/json"
	"errors"
	"testing"

	apperrors "github.com/binary-star-near/nearcrowd-contract/internal/errors"
)

const (
	adminID = AccountID("contract.test.near")
	aliceID = AccountID("alice.test.near")
	bobID   = AccountID("bob.test.near")

	fixtureMinPrice = "125000000000000000000000"
	fixtureMaxPrice = "135000000000000000000000"
	fixtureRate     = uint64(100)
	fixtureWaitTime = uint64(10_000_000_000)

	testDeadline = uint64(300_000_000_000) // 5 minutes
)

func mustU128(t *testing.T, s string) Uint128 {
	t.Helper()
	v, err := ParseUint128(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func testHash(n byte) TaskHash {
	var h TaskHash
	for i := range h {
		h[i] = n
	}
	return h
}

func newTestContract() *Contract {
	return New(Params{
		Admin:              adminID,
		AssignmentDeadline: testDeadline,
		RetainResolved:     true,
	})
}

func adminCtx(now uint64) CallContext {
	return CallContext{Caller: adminID, Now: now}
}

func workerCtx(id AccountID, now uint64) CallContext {
	return CallContext{Caller: id, Now: now}
}

// seedTaskset creates the fixture taskset with the given number of tasks.
func seedTaskset(t *testing.T, c *Contract, ordinal uint32, tasks int, now uint64) {
	t.Helper()

	err := c.AddTaskset(adminCtx(now), ordinal,
		mustU128(t, fixtureMinPrice), mustU128(t, fixtureMaxPrice), fixtureRate)
	if err != nil {
		t.Fatalf("add taskset %d: %v", ordinal, err)
	}

	hashes := make([]TaskHash, 0, tasks)
	for i := 0; i < tasks; i++ {
		hashes = append(hashes, testHash(byte(i+1)))
	}
	if err := c.AddTasks(adminCtx(now), ordinal, hashes); err != nil {
		t.Fatalf("add tasks: %v", err)
	}
}

// readyWorker whitelists the account and selects the taskset for it.
func readyWorker(t *testing.T, c *Contract, id AccountID, ordinal uint32, now uint64) {
	t.Helper()

	if err := c.WhitelistAccount(adminCtx(now), id); err != nil {
		t.Fatalf("whitelist: %v", err)
	}
	if err := c.ChangeTaskset(workerCtx(id, now), ordinal); err != nil {
		t.Fatalf("change taskset: %v", err)
	}
}

func TestAddTasksetValidation(t *testing.T) {
	c := newTestContract()

	minPrice := mustU128(t, fixtureMinPrice)
	maxPrice := mustU128(t, fixtureMaxPrice)

	if err := c.AddTaskset(adminCtx(0), 0, minPrice, maxPrice, fixtureRate); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := c.AddTaskset(adminCtx(0), 0, minPrice, maxPrice, fixtureRate); !errors.Is(err, apperrors.ErrTasksetExists) {
		t.Errorf("duplicate ordinal: expected already-exists, got %v", err)
	}
	if err := c.AddTaskset(adminCtx(0), 1, maxPrice, minPrice, fixtureRate); !errors.Is(err, apperrors.ErrInvalidRange) {
		t.Errorf("min above max: expected invalid-range, got %v", err)
	}
	if err := c.AddTaskset(adminCtx(0), 1, minPrice, maxPrice, 0); !errors.Is(err, apperrors.ErrInvalidRange) {
		t.Errorf("zero rate: expected invalid-range, got %v", err)
	}
}

func TestAddTasksUnknownTaskset(t *testing.T) {
	c := newTestContract()

	err := c.AddTasks(adminCtx(0), 7, []TaskHash{testHash(1)})
	if !errors.Is(err, apperrors.ErrTasksetNotFound) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestAdminOnlyOperations(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 0, 2, 0)

	minPrice := mustU128(t, fixtureMinPrice)
	maxPrice := mustU128(t, fixtureMaxPrice)

	calls := map[string]error{
		"add_taskset":               c.AddTaskset(workerCtx(aliceID, 0), 1, minPrice, maxPrice, fixtureRate),
		"add_tasks":                 c.AddTasks(workerCtx(aliceID, 0), 0, []TaskHash{testHash(9)}),
		"update_taskset_prices":     c.UpdateTasksetPrices(workerCtx(aliceID, 0), 0, minPrice, maxPrice),
		"update_mtasks_per_second":  c.UpdateMtasksPerSecond(workerCtx(aliceID, 0), 0, 101),
		"whitelist_account":         c.WhitelistAccount(workerCtx(aliceID, 0), aliceID),
		"ban_account":               c.BanAccount(workerCtx(aliceID, 0), aliceID),
		"approve_solution":          c.ApproveSolution(workerCtx(aliceID, 0), 0, aliceID, true),
		"return_expired": func() error {
			_, err := c.ReturnExpiredAssignments(workerCtx(aliceID, 0), 0)
			return err
		}(),
	}
	for name, err := range calls {
		if !errors.Is(err, apperrors.ErrPermissionDenied) {
			t.Errorf("%s by non-admin: expected permission-denied, got %v", name, err)
		}
	}

	// No state change slipped through.
	if len(c.Tasksets.Sets) != 1 {
		t.Errorf("expected 1 taskset, got %d", len(c.Tasksets.Sets))
	}
	if c.IsAccountWhitelisted(aliceID) {
		t.Error("alice must not be whitelisted")
	}

	state, err := c.GetTasksetState(0, 0)
	if err != nil {
		t.Fatalf("taskset state: %v", err)
	}
	if state.NumUnassigned != "2" {
		t.Errorf("expected 2 unassigned, got %s", state.NumUnassigned)
	}
}

func TestWhitelistBanCycle(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 2, 2, 0)

	if err := c.ChangeTaskset(workerCtx(aliceID, 0), 2); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("unregistered change_taskset: expected permission-denied, got %v", err)
	}

	if err := c.WhitelistAccount(adminCtx(0), aliceID); err != nil {
		t.Fatalf("whitelist: %v", err)
	}
	if !c.IsAccountWhitelisted(aliceID) {
		t.Error("alice should be whitelisted")
	}
	if err := c.ChangeTaskset(workerCtx(aliceID, 0), 2); err != nil {
		t.Errorf("whitelisted change_taskset: %v", err)
	}

	if err := c.BanAccount(adminCtx(0), aliceID); err != nil {
		t.Fatalf("ban: %v", err)
	}
	if c.IsAccountWhitelisted(aliceID) {
		t.Error("banned account must not read as whitelisted")
	}
	if err := c.ApplyForAssignment(workerCtx(aliceID, 0), 2); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("banned apply: expected permission-denied, got %v", err)
	}

	// Whitelisting again lifts the ban.
	if err := c.WhitelistAccount(adminCtx(0), aliceID); err != nil {
		t.Fatalf("re-whitelist: %v", err)
	}
	if !c.IsAccountWhitelisted(aliceID) {
		t.Error("re-whitelisted account should be authorized")
	}
}

func TestTasksetStateFixture(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 0, 2, 0)

	state, err := c.GetTasksetState(0, 0)
	if err != nil {
		t.Fatalf("taskset state: %v", err)
	}

	if state.NextPrice.String() != fixtureMaxPrice {
		t.Errorf("next_price: expected %s, got %s", fixtureMaxPrice, state.NextPrice)
	}
	if state.WaitTime != "10000000000" {
		t.Errorf("wait_time: expected 10000000000, got %s", state.WaitTime)
	}
	if state.NumUnassigned != "2" || state.NumReviews != "0" {
		t.Errorf("counts: got %s unassigned, %s reviews", state.NumUnassigned, state.NumReviews)
	}

	data, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	expected := `{"next_price":"135000000000000000000000","wait_time":"10000000000","num_unassigned":"2","num_reviews":"0"}`
	if string(data) != expected {
		t.Errorf("wire form mismatch:\n got %s\nwant %s", data, expected)
	}
}

func TestApplyRequiresSelectedIdleWithCapacity(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 1, 2, 0)
	seedTaskset(t, c, 2, 2, 0)
	readyWorker(t, c, aliceID, 2, 0)

	if err := c.ApplyForAssignment(workerCtx(aliceID, 0), 1); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("apply outside selected taskset: expected invalid-state, got %v", err)
	}

	if err := c.ApplyForAssignment(workerCtx(aliceID, 0), 2); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := c.ApplyForAssignment(workerCtx(aliceID, 0), 2); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("double apply: expected invalid-state, got %v", err)
	}

	// Empty taskset refuses applications outright.
	if err := c.AddTaskset(adminCtx(0), 3, mustU128(t, fixtureMinPrice), mustU128(t, fixtureMaxPrice), fixtureRate); err != nil {
		t.Fatalf("add empty taskset: %v", err)
	}
	readyWorker(t, c, bobID, 3, 0)
	if err := c.ApplyForAssignment(workerCtx(bobID, 0), 3); !errors.Is(err, apperrors.ErrNoCapacity) {
		t.Errorf("apply on empty taskset: expected no-capacity, got %v", err)
	}
}

func TestApplyQuotesCurrentPrice(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 2, 2, 0)
	readyWorker(t, c, aliceID, 2, 0)

	if err := c.ApplyForAssignment(workerCtx(aliceID, 0), 2); err != nil {
		t.Fatalf("apply: %v", err)
	}

	state, err := c.GetAccountState(2, aliceID, 0)
	if err != nil {
		t.Fatalf("account state: %v", err)
	}
	if state.Waits == nil {
		t.Fatal("expected waits-for-assignment state")
	}
	if state.Waits.Bid.String() != fixtureMaxPrice {
		t.Errorf("bid: expected %s, got %s", fixtureMaxPrice, state.Waits.Bid)
	}
	if state.Waits.TimeLeft != "0" {
		t.Errorf("time_left: expected 0, got %s", state.Waits.TimeLeft)
	}

	data, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	expected := `{"WaitsForAssignment":{"bid":"135000000000000000000000","time_left":"0"}}`
	if string(data) != expected {
		t.Errorf("wire form mismatch:\n got %s\nwant %s", data, expected)
	}
}

func TestClaimRequiresExactBid(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 2, 2, 0)
	readyWorker(t, c, aliceID, 2, 0)

	if err := c.ApplyForAssignment(workerCtx(aliceID, 0), 2); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// The original sandbox test appends a digit to the quoted bid.
	overbid := mustU128(t, fixtureMaxPrice+"1")
	if _, err := c.ClaimAssignment(workerCtx(aliceID, 0), 2, overbid); !errors.Is(err, apperrors.ErrBidMismatch) {
		t.Errorf("overbid: expected bid-mismatch, got %v", err)
	}

	more, err := c.ClaimAssignment(workerCtx(aliceID, 0), 2, mustU128(t, fixtureMaxPrice))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !more {
		t.Error("one task should remain after claiming the first of two")
	}

	// The stale application is gone; a second claim has nothing to finalize.
	if _, err := c.ClaimAssignment(workerCtx(aliceID, 0), 2, mustU128(t, fixtureMaxPrice)); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("stale claim: expected invalid-state, got %v", err)
	}
}

func TestClaimLastTaskReportsNoMoreCapacity(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 2, 1, 0)
	readyWorker(t, c, aliceID, 2, 0)

	if err := c.ApplyForAssignment(workerCtx(aliceID, 0), 2); err != nil {
		t.Fatalf("apply: %v", err)
	}
	more, err := c.ClaimAssignment(workerCtx(aliceID, 0), 2, mustU128(t, fixtureMaxPrice))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if more {
		t.Error("claiming the last task must report no remaining capacity")
	}

	hash := c.GetCurrentAssignment(2, aliceID)
	if hash == nil || *hash != testHash(1) {
		t.Errorf("expected alice to hold the first task, got %v", hash)
	}
}

func TestClaimResetsPriceEpoch(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 2, 2, 0)
	readyWorker(t, c, aliceID, 2, 0)

	// Half the decay window later the price sits mid-range.
	half := fixtureWaitTime / 2
	if err := c.ApplyForAssignment(workerCtx(aliceID, half), 2); err != nil {
		t.Fatalf("apply: %v", err)
	}
	state, _ := c.GetAccountState(2, aliceID, half)
	if state.Waits == nil {
		t.Fatal("expected waits state")
	}
	midPrice := "130000000000000000000000"
	if state.Waits.Bid.String() != midPrice {
		t.Errorf("mid-window bid: expected %s, got %s", midPrice, state.Waits.Bid)
	}

	if _, err := c.ClaimAssignment(workerCtx(aliceID, half), 2, state.Waits.Bid); err != nil {
		t.Fatalf("claim: %v", err)
	}

	tsState, _ := c.GetTasksetState(2, half)
	if tsState.NextPrice.String() != fixtureMaxPrice {
		t.Errorf("price must restart from max after a claim, got %s", tsState.NextPrice)
	}
}

func TestTimeLeftAfterRivalEpochReset(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 2, 3, 0)
	readyWorker(t, c, aliceID, 2, 0)
	readyWorker(t, c, bobID, 2, 0)

	// Alice applies mid-window and her quote is mid-range.
	half := fixtureWaitTime / 2
	if err := c.ApplyForAssignment(workerCtx(aliceID, half), 2); err != nil {
		t.Fatalf("alice apply: %v", err)
	}

	// Bob claims right after, resetting the epoch above alice's bid.
	if err := c.ApplyForAssignment(workerCtx(bobID, half), 2); err != nil {
		t.Fatalf("bob apply: %v", err)
	}
	bobState, _ := c.GetAccountState(2, bobID, half)
	if _, err := c.ClaimAssignment(workerCtx(bobID, half), 2, bobState.Waits.Bid); err != nil {
		t.Fatalf("bob claim: %v", err)
	}

	// The decline now has to travel half a window back down to alice's bid.
	aliceState, _ := c.GetAccountState(2, aliceID, half)
	if aliceState.Waits == nil {
		t.Fatal("alice should still be waiting")
	}
	if aliceState.Waits.TimeLeft != "5000000000" {
		t.Errorf("time_left: expected 5000000000, got %s", aliceState.Waits.TimeLeft)
	}
}

func TestReturnAssignment(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 2, 1, 0)
	readyWorker(t, c, aliceID, 2, 0)

	if err := c.ReturnAssignment(workerCtx(aliceID, 0)); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("return while idle: expected invalid-state, got %v", err)
	}

	if err := c.ApplyForAssignment(workerCtx(aliceID, 0), 2); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := c.ClaimAssignment(workerCtx(aliceID, 0), 2, mustU128(t, fixtureMaxPrice)); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := c.ReturnAssignment(workerCtx(aliceID, 5)); err != nil {
		t.Fatalf("return: %v", err)
	}

	tsState, _ := c.GetTasksetState(2, 5)
	if tsState.NumUnassigned != "1" {
		t.Errorf("task should be claimable again, got %s unassigned", tsState.NumUnassigned)
	}
	if c.GetCurrentAssignment(2, aliceID) != nil {
		t.Error("alice should hold nothing after returning")
	}
}

func TestSubmitAndApproveSolution(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 2, 1, 0)
	readyWorker(t, c, aliceID, 2, 0)

	if err := c.ApplyForAssignment(workerCtx(aliceID, 0), 2); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := c.ClaimAssignment(workerCtx(aliceID, 0), 2, mustU128(t, fixtureMaxPrice)); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := c.SubmitSolution(workerCtx(aliceID, 10), 2); err != nil {
		t.Fatalf("submit: %v", err)
	}

	tsState, _ := c.GetTasksetState(2, 10)
	if tsState.NumReviews != "1" {
		t.Errorf("expected 1 review pending, got %s", tsState.NumReviews)
	}

	review, err := c.GetTaskReviewState(2, aliceID)
	if err != nil {
		t.Fatalf("review state: %v", err)
	}
	if !review.InReview {
		t.Error("expected pending review")
	}

	if err := c.ApproveSolution(adminCtx(20), 2, aliceID, true); err != nil {
		t.Fatalf("approve: %v", err)
	}

	stats := c.GetAccountStats(aliceID)
	if stats.Balance.String() != fixtureMaxPrice {
		t.Errorf("balance: expected %s, got %s", fixtureMaxPrice, stats.Balance)
	}
	if stats.Successful != 1 || stats.Failed != 0 {
		t.Errorf("counters: got %d successful, %d failed", stats.Successful, stats.Failed)
	}

	state, _ := c.GetAccountState(2, aliceID, 20)
	if data, _ := json.Marshal(state); string(data) != `"Idle"` {
		t.Errorf("account should be idle after review, got %s", data)
	}

	review, _ = c.GetTaskReviewState(2, aliceID)
	if review.Resolved == nil || !review.Resolved.Approved {
		t.Error("expected retained resolved record with approval")
	}

	// The review is resolved; approving again has nothing to act on.
	if err := c.ApproveSolution(adminCtx(21), 2, aliceID, true); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("second approve: expected invalid-state, got %v", err)
	}
}

func TestApproveLeavesUnrelatedHoldIntact(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 2, 2, 0)
	seedTaskset(t, c, 3, 1, 0)
	readyWorker(t, c, aliceID, 2, 0)

	// First task goes into review.
	if err := c.ApplyForAssignment(workerCtx(aliceID, 0), 2); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := c.ClaimAssignment(workerCtx(aliceID, 0), 2, mustU128(t, fixtureMaxPrice)); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := c.SubmitSolution(workerCtx(aliceID, 1), 2); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// The review survives a hop to another taskset and back.
	if err := c.ChangeTaskset(workerCtx(aliceID, 2), 3); err != nil {
		t.Fatalf("change taskset away: %v", err)
	}
	if err := c.ChangeTaskset(workerCtx(aliceID, 3), 2); err != nil {
		t.Fatalf("change taskset back: %v", err)
	}
	review, _ := c.GetTaskReviewState(2, aliceID)
	if !review.InReview {
		t.Fatal("review should survive the taskset hop")
	}

	// A second task is claimed while the first awaits review.
	if err := c.ApplyForAssignment(workerCtx(aliceID, 4), 2); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	state, _ := c.GetAccountState(2, aliceID, 4)
	if state.Waits == nil {
		t.Fatal("expected waits state")
	}
	if _, err := c.ClaimAssignment(workerCtx(aliceID, 4), 2, state.Waits.Bid); err != nil {
		t.Fatalf("second claim: %v", err)
	}

	// Resolving the first task must not disturb the hold on the second.
	if err := c.ApproveSolution(adminCtx(5), 2, aliceID, true); err != nil {
		t.Fatalf("approve: %v", err)
	}

	hash := c.GetCurrentAssignment(2, aliceID)
	if hash == nil || *hash != testHash(2) {
		t.Fatalf("hold on the second task was lost, got %v", hash)
	}

	// Every Assigned record still has a matching holder.
	ts, _ := c.Tasksets.Get(2)
	for _, task := range ts.Tasks {
		if task.State != TaskAssigned {
			continue
		}
		holder := c.Accounts.Get(task.AccountID)
		if holder == nil || holder.Assignment.Phase != PhaseHolds || holder.Assignment.TaskHash != task.Hash {
			t.Errorf("task %v assigned to %s without a matching hold", task.Hash[:2], task.AccountID)
		}
	}

	stats := c.GetAccountStats(aliceID)
	if stats.Successful != 1 || stats.Balance.String() != fixtureMaxPrice {
		t.Errorf("approval accounting: %d successful, balance %s", stats.Successful, stats.Balance)
	}
}

func TestRejectSolution(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 2, 1, 0)
	readyWorker(t, c, aliceID, 2, 0)

	if err := c.ApplyForAssignment(workerCtx(aliceID, 0), 2); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := c.ClaimAssignment(workerCtx(aliceID, 0), 2, mustU128(t, fixtureMaxPrice)); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := c.SubmitSolution(workerCtx(aliceID, 10), 2); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := c.ApproveSolution(adminCtx(20), 2, aliceID, false); err != nil {
		t.Fatalf("reject: %v", err)
	}

	stats := c.GetAccountStats(aliceID)
	if stats.Balance.String() != "0" {
		t.Errorf("rejected work must not credit balance, got %s", stats.Balance)
	}
	if stats.Successful != 0 || stats.Failed != 1 {
		t.Errorf("counters: got %d successful, %d failed", stats.Successful, stats.Failed)
	}
}

func TestDiscardResolvedPolicy(t *testing.T) {
	c := New(Params{Admin: adminID, AssignmentDeadline: testDeadline, RetainResolved: false})
	seedTaskset(t, c, 2, 1, 0)
	readyWorker(t, c, aliceID, 2, 0)

	if err := c.ApplyForAssignment(workerCtx(aliceID, 0), 2); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := c.ClaimAssignment(workerCtx(aliceID, 0), 2, mustU128(t, fixtureMaxPrice)); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := c.SubmitSolution(workerCtx(aliceID, 10), 2); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := c.ApproveSolution(adminCtx(20), 2, aliceID, true); err != nil {
		t.Fatalf("approve: %v", err)
	}

	review, _ := c.GetTaskReviewState(2, aliceID)
	if data, _ := json.Marshal(review); string(data) != "null" {
		t.Errorf("discard policy must leave no review trace, got %s", data)
	}

	ts, _ := c.Tasksets.Get(2)
	if len(ts.Tasks) != 0 {
		t.Errorf("resolved record should be discarded, %d records remain", len(ts.Tasks))
	}
}

func TestExpirySweepReclaimsOverdueAssignments(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 2, 1, 0)
	readyWorker(t, c, aliceID, 2, 0)

	if err := c.ApplyForAssignment(workerCtx(aliceID, 0), 2); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := c.ClaimAssignment(workerCtx(aliceID, 0), 2, mustU128(t, fixtureMaxPrice)); err != nil {
		t.Fatalf("claim: %v", err)
	}

	reclaimed, err := c.ReturnExpiredAssignments(adminCtx(testDeadline-1), 2)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if reclaimed != 0 {
		t.Errorf("nothing is overdue yet, reclaimed %d", reclaimed)
	}

	reclaimed, err = c.ReturnExpiredAssignments(adminCtx(testDeadline), 2)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if reclaimed != 1 {
		t.Errorf("expected 1 reclaimed assignment, got %d", reclaimed)
	}

	tsState, _ := c.GetTasksetState(2, testDeadline)
	if tsState.NumUnassigned != "1" {
		t.Errorf("task should be claimable again, got %s unassigned", tsState.NumUnassigned)
	}
	state, _ := c.GetAccountState(2, aliceID, testDeadline)
	if data, _ := json.Marshal(state); string(data) != `"Idle"` {
		t.Errorf("holder should be idle after reclamation, got %s", data)
	}
}

func TestChangeTasksetReleasesHeldTask(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 0, 1, 0)
	seedTaskset(t, c, 1, 1, 0)
	readyWorker(t, c, aliceID, 0, 0)

	if err := c.ApplyForAssignment(workerCtx(aliceID, 0), 0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := c.ClaimAssignment(workerCtx(aliceID, 0), 0, mustU128(t, fixtureMaxPrice)); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := c.ChangeTaskset(workerCtx(aliceID, 5), 1); err != nil {
		t.Fatalf("change taskset: %v", err)
	}

	if ord := c.GetCurrentTaskset(aliceID); ord == nil || *ord != 1 {
		t.Errorf("expected current taskset 1, got %v", ord)
	}

	tsState, _ := c.GetTasksetState(0, 5)
	if tsState.NumUnassigned != "1" {
		t.Errorf("abandoned task must revert to unassigned, got %s", tsState.NumUnassigned)
	}
	if c.GetCurrentAssignment(1, aliceID) != nil {
		t.Error("no assignment should carry over into the new taskset")
	}
}

func TestBanLeavesAssignmentInert(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 2, 1, 0)
	readyWorker(t, c, aliceID, 2, 0)

	if err := c.ApplyForAssignment(workerCtx(aliceID, 0), 2); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := c.ClaimAssignment(workerCtx(aliceID, 0), 2, mustU128(t, fixtureMaxPrice)); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := c.BanAccount(adminCtx(1), aliceID); err != nil {
		t.Fatalf("ban: %v", err)
	}

	// The hold stays on the books but the banned holder cannot act on it.
	if err := c.ReturnAssignment(workerCtx(aliceID, 2)); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("banned return: expected permission-denied, got %v", err)
	}
	if hash := c.GetCurrentAssignment(2, aliceID); hash == nil {
		t.Error("assignment should remain recorded while inert")
	}

	// The expiry sweep is the path that frees the task.
	reclaimed, err := c.ReturnExpiredAssignments(adminCtx(testDeadline+1), 2)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if reclaimed != 1 {
		t.Errorf("expected the inert hold reclaimed, got %d", reclaimed)
	}
}

func TestViewsOnUnknownAccount(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 2, 2, 0)

	stats := c.GetAccountStats(bobID)
	data, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"balance":"0","successful":0,"failed":0}` {
		t.Errorf("unknown account stats: got %s", data)
	}

	if c.GetCurrentTaskset(bobID) != nil {
		t.Error("unknown account has no current taskset")
	}
	if c.GetCurrentAssignment(2, bobID) != nil {
		t.Error("unknown account holds nothing")
	}

	state, err := c.GetAccountState(2, bobID, 0)
	if err != nil {
		t.Fatalf("account state: %v", err)
	}
	if data, _ := json.Marshal(state); string(data) != `"Idle"` {
		t.Errorf("unknown account state: got %s", data)
	}
}

func TestReadsAreIdempotent(t *testing.T) {
	c := newTestContract()
	seedTaskset(t, c, 0, 2, 0)

	first, err := c.GetTasksetState(0, 42)
	if err != nil {
		t.Fatalf("taskset state: %v", err)
	}
	second, err := c.GetTasksetState(0, 42)
	if err != nil {
		t.Fatalf("taskset state: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("repeated reads diverged: %s vs %s", a, b)
	}
}
