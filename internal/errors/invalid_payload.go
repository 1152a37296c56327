package errors

import "net/http"

var ErrInvalidPayload = &Exception{
	Message:    "invalid request payload",
	StatusCode: http.StatusBadRequest,
}
