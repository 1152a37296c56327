package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/binary-star-near/nearcrowd-contract/internal/contract"
	apperrors "github.com/binary-star-near/nearcrowd-contract/internal/errors"
	"github.com/binary-star-near/nearcrowd-contract/internal/gate"
	"github.com/binary-star-near/nearcrowd-contract/internal/metrics"
	repository "github.com/binary-star-near/nearcrowd-contract/internal/repositories"
)

// LedgerService hosts the contract the way the replicated executor would:
// one call at a time behind the gate, each call loading the snapshot,
// observing one consistent instant, and persisting atomically on success.
// Rejected calls never save, so they leave no partial effect.
type LedgerService struct {
	repo   *repository.StateRepository
	gate   gate.CallGate
	logger *zap.Logger
	params contract.Params
}

func NewLedgerService(
	repo *repository.StateRepository,
	callGate gate.CallGate,
	logger *zap.Logger,
	params contract.Params,
) *LedgerService {
	return &LedgerService{
		repo:   repo,
		gate:   callGate,
		logger: logger,
		params: params,
	}
}

// execute applies one mutating call: acquire the gate, load the snapshot,
// clamp now to be non-decreasing, dispatch, save with the loaded version.
func (s *LedgerService) execute(
	ctx context.Context,
	method string,
	caller contract.AccountID,
	op func(*contract.Contract, contract.CallContext) error,
) error {
	start := time.Now()

	if err := s.gate.Acquire(ctx); err != nil {
		metrics.CallsTotal.WithLabelValues(method, metrics.OutcomeFailed).Inc()
		return err
	}
	defer func() {
		if err := s.gate.Release(ctx); err != nil {
			s.logger.Warn("gate release failed", zap.Error(err))
		}
	}()

	state, version, err := s.repo.Load(ctx)
	if err != nil {
		metrics.CallsTotal.WithLabelValues(method, metrics.OutcomeFailed).Inc()
		return err
	}
	if state == nil {
		state = contract.New(s.params)
	}

	callCtx := contract.CallContext{Caller: caller, Now: s.clampNow(state)}

	if err := op(state, callCtx); err != nil {
		metrics.CallsTotal.WithLabelValues(method, metrics.OutcomeRejected).Inc()
		s.logger.Info("call rejected",
			zap.String("method", method),
			zap.String("caller", string(caller)),
			zap.Error(err),
		)
		return err
	}

	state.LastCallAt = callCtx.Now
	if err := s.repo.Save(ctx, state, version); err != nil {
		if errors.Is(err, apperrors.ErrOptimisticLock) {
			metrics.SnapshotSaveConflicts.Inc()
		}
		metrics.CallsTotal.WithLabelValues(method, metrics.OutcomeFailed).Inc()
		return err
	}

	metrics.CallsTotal.WithLabelValues(method, metrics.OutcomeApplied).Inc()
	metrics.CallDurationSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())
	s.logger.Info("call applied",
		zap.String("method", method),
		zap.String("caller", string(caller)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// load serves read-only views: no gate, no save.
func (s *LedgerService) load(ctx context.Context) (*contract.Contract, uint64, error) {
	state, _, err := s.repo.Load(ctx)
	if err != nil {
		return nil, 0, err
	}
	if state == nil {
		state = contract.New(s.params)
	}
	return state, s.clampNow(state), nil
}

// clampNow keeps call time monotonically non-decreasing across calls even if
// the wall clock steps backwards.
func (s *LedgerService) clampNow(state *contract.Contract) uint64 {
	now := uint64(time.Now().UnixNano())
	if now < state.LastCallAt {
		now = state.LastCallAt
	}
	return now
}

func (s *LedgerService) AddTaskset(ctx context.Context, caller contract.AccountID, ordinal uint32, minPrice, maxPrice contract.Uint128, rate uint64) error {
	return s.execute(ctx, "add_taskset", caller, func(c *contract.Contract, cc contract.CallContext) error {
		return c.AddTaskset(cc, ordinal, minPrice, maxPrice, rate)
	})
}

func (s *LedgerService) AddTasks(ctx context.Context, caller contract.AccountID, ordinal uint32, hashes []contract.TaskHash) error {
	return s.execute(ctx, "add_tasks", caller, func(c *contract.Contract, cc contract.CallContext) error {
		return c.AddTasks(cc, ordinal, hashes)
	})
}

func (s *LedgerService) UpdateTasksetPrices(ctx context.Context, caller contract.AccountID, ordinal uint32, newMin, newMax contract.Uint128) error {
	return s.execute(ctx, "update_taskset_prices", caller, func(c *contract.Contract, cc contract.CallContext) error {
		return c.UpdateTasksetPrices(cc, ordinal, newMin, newMax)
	})
}

func (s *LedgerService) UpdateMtasksPerSecond(ctx context.Context, caller contract.AccountID, ordinal uint32, rate uint64) error {
	return s.execute(ctx, "update_mtasks_per_second", caller, func(c *contract.Contract, cc contract.CallContext) error {
		return c.UpdateMtasksPerSecond(cc, ordinal, rate)
	})
}

func (s *LedgerService) WhitelistAccount(ctx context.Context, caller, id contract.AccountID) error {
	return s.execute(ctx, "whitelist_account", caller, func(c *contract.Contract, cc contract.CallContext) error {
		return c.WhitelistAccount(cc, id)
	})
}

func (s *LedgerService) BanAccount(ctx context.Context, caller, id contract.AccountID) error {
	return s.execute(ctx, "ban_account", caller, func(c *contract.Contract, cc contract.CallContext) error {
		return c.BanAccount(cc, id)
	})
}

func (s *LedgerService) ChangeTaskset(ctx context.Context, caller contract.AccountID, newOrdinal uint32) error {
	return s.execute(ctx, "change_taskset", caller, func(c *contract.Contract, cc contract.CallContext) error {
		return c.ChangeTaskset(cc, newOrdinal)
	})
}

func (s *LedgerService) ApplyForAssignment(ctx context.Context, caller contract.AccountID, ordinal uint32) error {
	return s.execute(ctx, "apply_for_assignment", caller, func(c *contract.Contract, cc contract.CallContext) error {
		return c.ApplyForAssignment(cc, ordinal)
	})
}

func (s *LedgerService) ClaimAssignment(ctx context.Context, caller contract.AccountID, ordinal uint32, bid contract.Uint128) (bool, error) {
	var more bool
	err := s.execute(ctx, "claim_assignment", caller, func(c *contract.Contract, cc contract.CallContext) error {
		var opErr error
		more, opErr = c.ClaimAssignment(cc, ordinal, bid)
		return opErr
	})
	return more, err
}

func (s *LedgerService) ReturnAssignment(ctx context.Context, caller contract.AccountID) error {
	return s.execute(ctx, "return_assignment", caller, func(c *contract.Contract, cc contract.CallContext) error {
		return c.ReturnAssignment(cc)
	})
}

func (s *LedgerService) SubmitSolution(ctx context.Context, caller contract.AccountID, ordinal uint32) error {
	return s.execute(ctx, "submit_solution", caller, func(c *contract.Contract, cc contract.CallContext) error {
		return c.SubmitSolution(cc, ordinal)
	})
}

func (s *LedgerService) ApproveSolution(ctx context.Context, caller contract.AccountID, ordinal uint32, id contract.AccountID, approved bool) error {
	return s.execute(ctx, "approve_solution", caller, func(c *contract.Contract, cc contract.CallContext) error {
		return c.ApproveSolution(cc, ordinal, id, approved)
	})
}

func (s *LedgerService) ReturnExpiredAssignments(ctx context.Context, caller contract.AccountID, ordinal uint32) (int, error) {
	var reclaimed int
	err := s.execute(ctx, "return_expired_assignments", caller, func(c *contract.Contract, cc contract.CallContext) error {
		var opErr error
		reclaimed, opErr = c.ReturnExpiredAssignments(cc, ordinal)
		return opErr
	})
	return reclaimed, err
}

func (s *LedgerService) IsAccountWhitelisted(ctx context.Context, id contract.AccountID) (bool, error) {
	state, _, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return state.IsAccountWhitelisted(id), nil
}

func (s *LedgerService) GetCurrentTaskset(ctx context.Context, id contract.AccountID) (*uint32, error) {
	state, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return state.GetCurrentTaskset(id), nil
}

func (s *LedgerService) GetCurrentAssignment(ctx context.Context, ordinal uint32, id contract.AccountID) (*contract.TaskHash, error) {
	state, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return state.GetCurrentAssignment(ordinal, id), nil
}

func (s *LedgerService) GetAccountStats(ctx context.Context, id contract.AccountID) (contract.AccountStatsView, error) {
	state, _, err := s.load(ctx)
	if err != nil {
		return contract.AccountStatsView{}, err
	}
	return state.GetAccountStats(id), nil
}

func (s *LedgerService) GetAccountState(ctx context.Context, ordinal uint32, id contract.AccountID) (contract.AccountStateView, error) {
	state, now, err := s.load(ctx)
	if err != nil {
		return contract.AccountStateView{}, err
	}
	return state.GetAccountState(ordinal, id, now)
}

func (s *LedgerService) GetTasksetState(ctx context.Context, ordinal uint32) (contract.TasksetStateView, error) {
	state, now, err := s.load(ctx)
	if err != nil {
		return contract.TasksetStateView{}, err
	}
	return state.GetTasksetState(ordinal, now)
}

func (s *LedgerService) GetTaskReviewState(ctx context.Context, ordinal uint32, id contract.AccountID) (contract.ReviewStateView, error) {
	state, _, err := s.load(ctx)
	if err != nil {
		return contract.ReviewStateView{}, err
	}
	return state.GetTaskReviewState(ordinal, id)
}
