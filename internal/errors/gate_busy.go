package errors

import "net/http"

var ErrGateBusy = &Exception{
	Message:    "ledger call gate is busy",
	StatusCode: http.StatusServiceUnavailable,
}
