package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	middleware "github.com/binary-star-near/nearcrowd-contract/internal/http/middlewares"
)

func Register(e *echo.Echo, h *Handler, rateLimitPerMinute int) {
	e.Use(middleware.RateLimiter(rateLimitPerMinute, time.Minute))

	// Admin calls.
	e.POST("/tasksets", h.AddTaskset)
	e.POST("/tasksets/:ordinal/tasks", h.AddTasks)
	e.PUT("/tasksets/:ordinal/prices", h.UpdateTasksetPrices)
	e.PUT("/tasksets/:ordinal/rate", h.UpdateMtasksPerSecond)
	e.POST("/tasksets/:ordinal/expired", h.ReturnExpiredAssignments)
	e.POST("/accounts/:account_id/whitelist", h.WhitelistAccount)
	e.POST("/accounts/:account_id/ban", h.BanAccount)
	e.POST("/reviews/approve", h.ApproveSolution)

	// Worker calls.
	e.POST("/assignment/taskset", h.ChangeTaskset)
	e.POST("/assignment/apply", h.ApplyForAssignment)
	e.POST("/assignment/claim", h.ClaimAssignment)
	e.POST("/assignment/return", h.ReturnAssignment)
	e.POST("/assignment/submit", h.SubmitSolution)

	// Views, open to any caller.
	e.GET("/accounts/:account_id/whitelisted", h.IsAccountWhitelisted)
	e.GET("/accounts/:account_id/taskset", h.GetCurrentTaskset)
	e.GET("/accounts/:account_id/stats", h.GetAccountStats)
	e.GET("/tasksets/:ordinal/state", h.GetTasksetState)
	e.GET("/tasksets/:ordinal/accounts/:account_id/state", h.GetAccountState)
	e.GET("/tasksets/:ordinal/accounts/:account_id/assignment", h.GetCurrentAssignment)
	e.GET("/tasksets/:ordinal/accounts/:account_id/review", h.GetTaskReviewState)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
