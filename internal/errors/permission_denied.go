package errors

import "net/http"

var ErrPermissionDenied = &Exception{
	Message:    "permission denied",
	StatusCode: http.StatusForbidden,
}
