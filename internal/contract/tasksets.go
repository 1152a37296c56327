package contract

import (
	apperrors "github.com/binary-star-near/nearcrowd-contract/internal/errors"
)

// TasksetRegistry exclusively owns every taskset and the task records inside
// them. Accounts reference tasks by ordinal and hash only, never by pointer.
type TasksetRegistry struct {
	Sets map[uint32]*Taskset `json:"sets"`
}

func NewTasksetRegistry() *TasksetRegistry {
	return &TasksetRegistry{Sets: make(map[uint32]*Taskset)}
}

func (r *TasksetRegistry) Get(ordinal uint32) (*Taskset, error) {
	ts, ok := r.Sets[ordinal]
	if !ok {
		return nil, apperrors.ErrTasksetNotFound
	}
	return ts, nil
}

func (r *TasksetRegistry) Create(ordinal uint32, minPrice, maxPrice Uint128, rate uint64, now uint64) error {
	if _, ok := r.Sets[ordinal]; ok {
		return apperrors.ErrTasksetExists
	}
	if minPrice.Cmp(maxPrice) > 0 || rate == 0 {
		return apperrors.ErrInvalidRange
	}

	r.Sets[ordinal] = &Taskset{
		Ordinal:         ordinal,
		MinPrice:        minPrice,
		MaxPrice:        maxPrice,
		MtasksPerSecond: rate,
		PriceEpochStart: now,
	}
	return nil
}

func (r *TasksetRegistry) AppendTasks(ordinal uint32, hashes []TaskHash) error {
	ts, err := r.Get(ordinal)
	if err != nil {
		return err
	}

	for _, h := range hashes {
		ts.Tasks = append(ts.Tasks, &TaskRecord{Hash: h, State: TaskUnassigned})
	}
	return nil
}

// UpdatePriceBounds mutates the bounds in place. The price epoch is left
// untouched: decay continues from the existing epoch, reinterpreted under the
// new bounds on the next read.
func (r *TasksetRegistry) UpdatePriceBounds(ordinal uint32, newMin, newMax Uint128) error {
	ts, err := r.Get(ordinal)
	if err != nil {
		return err
	}
	if newMin.Cmp(newMax) > 0 {
		return apperrors.ErrInvalidRange
	}

	ts.MinPrice = newMin
	ts.MaxPrice = newMax
	return nil
}

func (r *TasksetRegistry) UpdateRate(ordinal uint32, rate uint64) error {
	ts, err := r.Get(ordinal)
	if err != nil {
		return err
	}
	if rate == 0 {
		return apperrors.ErrInvalidRange
	}

	ts.MtasksPerSecond = rate
	return nil
}

func (ts *Taskset) NumUnassigned() int {
	n := 0
	for _, t := range ts.Tasks {
		if t.State == TaskUnassigned {
			n++
		}
	}
	return n
}

func (ts *Taskset) NumReviews() int {
	n := 0
	for _, t := range ts.Tasks {
		if t.State == TaskInReview {
			n++
		}
	}
	return n
}

// firstUnassigned returns the earliest-ordered claimable record, nil if none.
func (ts *Taskset) firstUnassigned() *TaskRecord {
	for _, t := range ts.Tasks {
		if t.State == TaskUnassigned {
			return t
		}
	}
	return nil
}

// taskHeldBy finds the record an account currently holds, matching both the
// hash recorded on the account and the claim ownership on the record.
func (ts *Taskset) taskHeldBy(id AccountID, hash TaskHash) *TaskRecord {
	for _, t := range ts.Tasks {
		if t.Hash == hash && t.AccountID == id && (t.State == TaskAssigned || t.State == TaskInReview) {
			return t
		}
	}
	return nil
}
