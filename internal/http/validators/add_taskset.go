package validators

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func ValidateAddTasksetRequest(minPrice, maxPrice, rate string) error {
	if minPrice == "" || maxPrice == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "min_price and max_price are required")
	}
	if rate == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "mtasks_per_second is required")
	}
	return nil
}
