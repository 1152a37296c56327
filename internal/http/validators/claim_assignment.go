package validators

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func ValidateClaimAssignmentRequest(bid string) error {
	if bid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bid is required")
	}
	return nil
}
