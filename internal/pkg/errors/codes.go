package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int
	Status  int
	Message string
}

const (
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrTooManyRequests = 1006
	ErrBadRequest      = 1007
	ErrServiceUnavail  = 1008

	// Sourcing errors (6000-6999)
	ErrSourcingInvalidIntent = 6000
	ErrSourcingFailed        = 6001
	ErrSourcingNoSources     = 6002
	ErrSourcingTimeout       = 6003
	ErrVendorMatchFailed     = 6004
)

var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	ErrSourcingInvalidIntent: {ErrSourcingInvalidIntent, http.StatusBadRequest, "Invalid search intent"},
	ErrSourcingFailed:        {ErrSourcingFailed, http.StatusInternalServerError, "Search failed"},
	ErrSourcingNoSources:     {ErrSourcingNoSources, http.StatusServiceUnavailable, "No offer sources configured"},
	ErrSourcingTimeout:       {ErrSourcingTimeout, http.StatusGatewayTimeout, "Search deadline exceeded"},
	ErrVendorMatchFailed:     {ErrVendorMatchFailed, http.StatusInternalServerError, "Vendor matching failed"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
