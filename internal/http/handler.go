package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/binary-star-near/nearcrowd-contract/internal/contract"
	apperrors "github.com/binary-star-near/nearcrowd-contract/internal/errors"
	"github.com/binary-star-near/nearcrowd-contract/internal/http/validators"
	"github.com/binary-star-near/nearcrowd-contract/internal/services"
)

// CallerHeader carries the caller identity the replicated host would supply
// out of band. The gateway trusts it; authenticating it is the deployment's
// concern, not the ledger program's.
const CallerHeader = "X-Account-Id"

type Handler struct {
	ledger *services.LedgerService
}

func NewHandler(ledger *services.LedgerService) *Handler {
	return &Handler{ledger: ledger}
}

func caller(c echo.Context) contract.AccountID {
	return contract.AccountID(c.Request().Header.Get(CallerHeader))
}

func ordinalParam(c echo.Context) (uint32, error) {
	v, err := strconv.ParseUint(c.Param("ordinal"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid taskset ordinal")
	}
	return uint32(v), nil
}

func parseAmount(field, s string) (contract.Uint128, error) {
	v, err := contract.ParseUint128(s)
	if err != nil {
		return contract.Uint128{}, echo.NewHTTPError(http.StatusBadRequest, field+" must be a decimal string")
	}
	return v, nil
}

func parseRate(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "mtasks_per_second must be a decimal string")
	}
	return v, nil
}

func parseHashes(raw [][]int) ([]contract.TaskHash, error) {
	hashes := make([]contract.TaskHash, 0, len(raw))
	for _, r := range raw {
		h, err := contract.ParseTaskHash(r)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		hashes = append(hashes, h)
	}
	return hashes, nil
}

func appError(err error) error {
	return echo.NewHTTPError(apperrors.StatusCode(err), err.Error())
}

func (h *Handler) AddTaskset(c echo.Context) error {
	var req AddTasksetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrInvalidPayload.Message)
	}
	if err := validators.ValidateAddTasksetRequest(req.MinPrice, req.MaxPrice, req.MtasksPerSecond); err != nil {
		return err
	}

	minPrice, err := parseAmount("min_price", req.MinPrice)
	if err != nil {
		return err
	}
	maxPrice, err := parseAmount("max_price", req.MaxPrice)
	if err != nil {
		return err
	}
	rate, err := parseRate(req.MtasksPerSecond)
	if err != nil {
		return err
	}

	if err := h.ledger.AddTaskset(c.Request().Context(), caller(c), req.Ordinal, minPrice, maxPrice, rate); err != nil {
		return appError(err)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *Handler) AddTasks(c echo.Context) error {
	ordinal, err := ordinalParam(c)
	if err != nil {
		return err
	}

	var req AddTasksRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrInvalidPayload.Message)
	}
	if err := validators.ValidateAddTasksRequest(req.Hashes); err != nil {
		return err
	}
	hashes, err := parseHashes(req.Hashes)
	if err != nil {
		return err
	}

	if err := h.ledger.AddTasks(c.Request().Context(), caller(c), ordinal, hashes); err != nil {
		return appError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateTasksetPrices(c echo.Context) error {
	ordinal, err := ordinalParam(c)
	if err != nil {
		return err
	}

	var req UpdateTasksetPricesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrInvalidPayload.Message)
	}
	newMin, err := parseAmount("new_min_price", req.NewMinPrice)
	if err != nil {
		return err
	}
	newMax, err := parseAmount("new_max_price", req.NewMaxPrice)
	if err != nil {
		return err
	}

	if err := h.ledger.UpdateTasksetPrices(c.Request().Context(), caller(c), ordinal, newMin, newMax); err != nil {
		return appError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateMtasksPerSecond(c echo.Context) error {
	ordinal, err := ordinalParam(c)
	if err != nil {
		return err
	}

	var req UpdateMtasksPerSecondRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrInvalidPayload.Message)
	}
	rate, err := parseRate(req.MtasksPerSecond)
	if err != nil {
		return err
	}

	if err := h.ledger.UpdateMtasksPerSecond(c.Request().Context(), caller(c), ordinal, rate); err != nil {
		return appError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) WhitelistAccount(c echo.Context) error {
	id := contract.AccountID(c.Param("account_id"))
	if err := h.ledger.WhitelistAccount(c.Request().Context(), caller(c), id); err != nil {
		return appError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) BanAccount(c echo.Context) error {
	id := contract.AccountID(c.Param("account_id"))
	if err := h.ledger.BanAccount(c.Request().Context(), caller(c), id); err != nil {
		return appError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ChangeTaskset(c echo.Context) error {
	var req ChangeTasksetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrInvalidPayload.Message)
	}

	if err := h.ledger.ChangeTaskset(c.Request().Context(), caller(c), req.NewTaskOrd); err != nil {
		return appError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ApplyForAssignment(c echo.Context) error {
	var req ApplyForAssignmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrInvalidPayload.Message)
	}

	if err := h.ledger.ApplyForAssignment(c.Request().Context(), caller(c), req.TaskOrdinal); err != nil {
		return appError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ClaimAssignment(c echo.Context) error {
	var req ClaimAssignmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrInvalidPayload.Message)
	}
	if err := validators.ValidateClaimAssignmentRequest(req.Bid); err != nil {
		return err
	}
	bid, err := parseAmount("bid", req.Bid)
	if err != nil {
		return err
	}

	more, err := h.ledger.ClaimAssignment(c.Request().Context(), caller(c), req.TaskOrdinal, bid)
	if err != nil {
		return appError(err)
	}
	return c.JSON(http.StatusOK, more)
}

func (h *Handler) ReturnAssignment(c echo.Context) error {
	if err := h.ledger.ReturnAssignment(c.Request().Context(), caller(c)); err != nil {
		return appError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SubmitSolution(c echo.Context) error {
	var req SubmitSolutionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrInvalidPayload.Message)
	}

	if err := h.ledger.SubmitSolution(c.Request().Context(), caller(c), req.TaskOrdinal); err != nil {
		return appError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ApproveSolution(c echo.Context) error {
	var req ApproveSolutionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrInvalidPayload.Message)
	}
	if err := validators.ValidateApproveSolutionRequest(req.AccountID); err != nil {
		return err
	}

	if err := h.ledger.ApproveSolution(c.Request().Context(), caller(c), req.TaskOrdinal, contract.AccountID(req.AccountID), req.Approved); err != nil {
		return appError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ReturnExpiredAssignments(c echo.Context) error {
	ordinal, err := ordinalParam(c)
	if err != nil {
		return err
	}

	reclaimed, err := h.ledger.ReturnExpiredAssignments(c.Request().Context(), caller(c), ordinal)
	if err != nil {
		return appError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reclaimed": reclaimed})
}

func (h *Handler) IsAccountWhitelisted(c echo.Context) error {
	id := contract.AccountID(c.Param("account_id"))
	ok, err := h.ledger.IsAccountWhitelisted(c.Request().Context(), id)
	if err != nil {
		return appError(err)
	}
	return c.JSON(http.StatusOK, ok)
}

func (h *Handler) GetCurrentTaskset(c echo.Context) error {
	id := contract.AccountID(c.Param("account_id"))
	ord, err := h.ledger.GetCurrentTaskset(c.Request().Context(), id)
	if err != nil {
		return appError(err)
	}
	return c.JSON(http.StatusOK, ord)
}

func (h *Handler) GetCurrentAssignment(c echo.Context) error {
	ordinal, err := ordinalParam(c)
	if err != nil {
		return err
	}
	id := contract.AccountID(c.Param("account_id"))

	hash, err := h.ledger.GetCurrentAssignment(c.Request().Context(), ordinal, id)
	if err != nil {
		return appError(err)
	}
	return c.JSON(http.StatusOK, hash)
}

func (h *Handler) GetAccountStats(c echo.Context) error {
	id := contract.AccountID(c.Param("account_id"))
	stats, err := h.ledger.GetAccountStats(c.Request().Context(), id)
	if err != nil {
		return appError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetAccountState(c echo.Context) error {
	ordinal, err := ordinalParam(c)
	if err != nil {
		return err
	}
	id := contract.AccountID(c.Param("account_id"))

	state, err := h.ledger.GetAccountState(c.Request().Context(), ordinal, id)
	if err != nil {
		return appError(err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) GetTasksetState(c echo.Context) error {
	ordinal, err := ordinalParam(c)
	if err != nil {
		return err
	}

	state, err := h.ledger.GetTasksetState(c.Request().Context(), ordinal)
	if err != nil {
		return appError(err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) GetTaskReviewState(c echo.Context) error {
	ordinal, err := ordinalParam(c)
	if err != nil {
		return err
	}
	id := contract.AccountID(c.Param("account_id"))

	state, err := h.ledger.GetTaskReviewState(c.Request().Context(), ordinal, id)
	if err != nil {
		return appError(err)
	}
	return c.JSON(http.StatusOK, state)
}
