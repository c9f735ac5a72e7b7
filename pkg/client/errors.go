package client

import (
	"errors"
	"fmt"
)

// HTTPError represents a non-2xx HTTP response from the daemon.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// RPCError represents a JSON-RPC error returned by the daemon. Data
// carries the domain taxonomy code when one applies.
type RPCError struct {
	Code    int
	Message string
	Data    any
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %d: %s", e.Code, e.Message)
}

// IsRPCCode reports whether err (or any wrapped error) is an RPCError
// with the given code.
func IsRPCCode(err error, code int) bool {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == code
	}
	return false
}
