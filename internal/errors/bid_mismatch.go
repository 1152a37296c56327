package errors

import "net/http"

var ErrBidMismatch = &Exception{
	Message:    "bid does not match the quoted price",
	StatusCode: http.StatusConflict,
}
