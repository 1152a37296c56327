package errors

import "net/http"

var ErrTasksetExists = &Exception{
	Message:    "taskset ordinal already exists",
	StatusCode: http.StatusConflict,
}
