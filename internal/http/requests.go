package http

// Request payloads mirror the ledger call arguments: ordinals as JSON
// numbers, token amounts and rates as decimal strings, task hashes as arrays
// of byte values.

type AddTasksetRequest struct {
	Ordinal         uint32 `json:"ordinal"`
	MinPrice        string `json:"min_price"`
	MaxPrice        string `json:"max_price"`
	MtasksPerSecond string `json:"mtasks_per_second"`
}

type AddTasksRequest struct {
	Hashes [][]int `json:"hashes"`
}

type UpdateTasksetPricesRequest struct {
	NewMinPrice string `json:"new_min_price"`
	NewMaxPrice string `json:"new_max_price"`
}

type UpdateMtasksPerSecondRequest struct {
	MtasksPerSecond string `json:"mtasks_per_second"`
}

type ChangeTasksetRequest struct {
	NewTaskOrd uint32 `json:"new_task_ord"`
}

type ApplyForAssignmentRequest struct {
	TaskOrdinal uint32 `json:"task_ordinal"`
}

type ClaimAssignmentRequest struct {
	TaskOrdinal uint32 `json:"task_ordinal"`
	Bid         string `json:"bid"`
}

type SubmitSolutionRequest struct {
	TaskOrdinal uint32 `json:"task_ordinal"`
}

type ApproveSolutionRequest struct {
	TaskOrdinal uint32 `json:"task_ordinal"`
	AccountID   string `json:"account_id"`
	Approved    bool   `json:"approved"`
}
