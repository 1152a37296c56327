package errors

import "net/http"

var ErrNoCapacity = &Exception{
	Message:    "no unassigned task available",
	StatusCode: http.StatusConflict,
}
