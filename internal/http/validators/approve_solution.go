package validators

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func ValidateApproveSolutionRequest(accountID string) error {
	if accountID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "account_id is required")
	}
	return nil
}
