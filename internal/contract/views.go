package contract

import (
	"encoding/json"
	"strconv"
)

// Read views mirror the host wire formats: u128 amounts and u64 durations as
// decimal strings, counters as plain numbers, sum types as either a bare
// string tag or a single-key object. Views never mutate state; repeated reads
// with no intervening call return identical results.

type AccountStatsView struct {
	Balance    Uint128 `json:"balance"`
	Successful uint32  `json:"successful"`
	Failed     uint32  `json:"failed"`
}

type TasksetStateView struct {
	NextPrice     Uint128 `json:"next_price"`
	WaitTime      string  `json:"wait_time"`
	NumUnassigned string  `json:"num_unassigned"`
	NumReviews    string  `json:"num_reviews"`
}

type WaitsForAssignmentView struct {
	Bid      Uint128 `json:"bid"`
	TimeLeft string  `json:"time_left"`
}

type HoldsAssignmentView struct {
	TaskHash   TaskHash `json:"task_hash"`
	TimePassed string   `json:"time_passed"`
}

// AccountStateView is the tagged view of an account's assignment state:
// "Idle", {"WaitsForAssignment":{...}} or {"HoldsAssignment":{...}}.
type AccountStateView struct {
	Waits *WaitsForAssignmentView
	Holds *HoldsAssignmentView
}

func (v AccountStateView) MarshalJSON() ([]byte, error) {
	switch {
	case v.Waits != nil:
		return json.Marshal(map[string]*WaitsForAssignmentView{"WaitsForAssignment": v.Waits})
	case v.Holds != nil:
		return json.Marshal(map[string]*HoldsAssignmentView{"HoldsAssignment": v.Holds})
	default:
		return json.Marshal("Idle")
	}
}

type ResolvedReviewView struct {
	Approved bool `json:"approved"`
}

// ReviewStateView is null, "InReview" or {"Resolved":{"approved":bool}}.
type ReviewStateView struct {
	InReview bool
	Resolved *ResolvedReviewView
}

func (v ReviewStateView) MarshalJSON() ([]byte, error) {
	switch {
	case v.InReview:
		return json.Marshal("InReview")
	case v.Resolved != nil:
		return json.Marshal(map[string]*ResolvedReviewView{"Resolved": v.Resolved})
	default:
		return json.Marshal(nil)
	}
}

func (c *Contract) IsAccountWhitelisted(id AccountID) bool {
	return c.Accounts.IsAuthorized(id)
}

func (c *Contract) GetCurrentTaskset(id AccountID) *uint32 {
	acc := c.Accounts.Get(id)
	if acc == nil {
		return nil
	}
	return acc.CurrentTaskset
}

func (c *Contract) GetCurrentAssignment(ordinal uint32, id AccountID) *TaskHash {
	acc := c.Accounts.Get(id)
	if acc == nil || acc.CurrentTaskset == nil || *acc.CurrentTaskset != ordinal {
		return nil
	}
	if acc.Assignment.Phase != PhaseHolds {
		return nil
	}
	h := acc.Assignment.TaskHash
	return &h
}

func (c *Contract) GetAccountStats(id AccountID) AccountStatsView {
	acc := c.Accounts.Get(id)
	if acc == nil {
		return AccountStatsView{}
	}
	return AccountStatsView{
		Balance:    acc.Balance,
		Successful: acc.Successful,
		Failed:     acc.Failed,
	}
}

// GetAccountState derives the assignment view at the given instant. The
// waiting view's time_left is how long until the declining price is back at
// the stored bid, clamped at zero.
func (c *Contract) GetAccountState(ordinal uint32, id AccountID, now uint64) (AccountStateView, error) {
	ts, err := c.Tasksets.Get(ordinal)
	if err != nil {
		return AccountStateView{}, err
	}

	acc := c.Accounts.Get(id)
	if acc == nil || acc.CurrentTaskset == nil || *acc.CurrentTaskset != ordinal {
		return AccountStateView{}, nil
	}

	switch acc.Assignment.Phase {
	case PhaseWaits:
		return AccountStateView{Waits: &WaitsForAssignmentView{
			Bid:      acc.Assignment.Bid,
			TimeLeft: strconv.FormatUint(ts.TimeUntilPrice(acc.Assignment.Bid, now), 10),
		}}, nil
	case PhaseHolds:
		var passed uint64
		if now > acc.Assignment.ClaimedAt {
			passed = now - acc.Assignment.ClaimedAt
		}
		return AccountStateView{Holds: &HoldsAssignmentView{
			TaskHash:   acc.Assignment.TaskHash,
			TimePassed: strconv.FormatUint(passed, 10),
		}}, nil
	default:
		return AccountStateView{}, nil
	}
}

func (c *Contract) GetTasksetState(ordinal uint32, now uint64) (TasksetStateView, error) {
	ts, err := c.Tasksets.Get(ordinal)
	if err != nil {
		return TasksetStateView{}, err
	}
	return TasksetStateView{
		NextPrice:     ts.PriceAt(now),
		WaitTime:      strconv.FormatUint(ts.WaitTime(), 10),
		NumUnassigned: strconv.Itoa(ts.NumUnassigned()),
		NumReviews:    strconv.Itoa(ts.NumReviews()),
	}, nil
}

// GetTaskReviewState reports the review status of the account's task in the
// taskset: a pending review wins over any retained resolved record.
func (c *Contract) GetTaskReviewState(ordinal uint32, id AccountID) (ReviewStateView, error) {
	ts, err := c.Tasksets.Get(ordinal)
	if err != nil {
		return ReviewStateView{}, err
	}

	var resolved *TaskRecord
	for _, t := range ts.Tasks {
		if t.AccountID != id {
			continue
		}
		if t.State == TaskInReview {
			return ReviewStateView{InReview: true}, nil
		}
		if t.State == TaskResolved {
			resolved = t
		}
	}
	if resolved != nil {
		return ReviewStateView{Resolved: &ResolvedReviewView{Approved: resolved.Approved}}, nil
	}
	return ReviewStateView{}, nil
}
