package errors

import "net/http"

var ErrInvalidRange = &Exception{
	Message:    "invalid price bounds or rate",
	StatusCode: http.StatusBadRequest,
}
