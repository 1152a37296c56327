package errors

import "net/http"

var ErrTasksetNotFound = &Exception{
	Message:    "taskset not found",
	StatusCode: http.StatusNotFound,
}
