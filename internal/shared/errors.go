package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrProvider           = fmt.Errorf("metadata provider error")
	ErrSearchFailed       = fmt.Errorf("search failed")
	ErrFetchFailed        = fmt.Errorf("fetch failed")

	// Session errors
	ErrUnauthorizedUser = fmt.Errorf("user not found")
	ErrUnknownSession   = fmt.Errorf("user not connected")
	ErrMissingUser      = fmt.Errorf("user parameter is missing")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidLink     = fmt.Errorf("invalid spotify link")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
