package errors

import "net/http"

var ErrInvalidState = &Exception{
	Message:    "operation not permitted in current assignment state",
	StatusCode: http.StatusConflict,
}
