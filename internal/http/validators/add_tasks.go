package validators

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func ValidateAddTasksRequest(hashes [][]int) error {
	if len(hashes) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "hashes must not be empty")
	}
	return nil
}
