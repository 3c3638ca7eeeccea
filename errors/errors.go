package errors

import "errors"

// CLI error categories. CLIError values unwrap to one of these or to the
// domain error they describe.
var (
	// ErrNotAuthenticated indicates missing or rejected credentials.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrPermissionDenied indicates credentials without the needed scope.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConnectionFailed indicates a remote service is unreachable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrBadConfig indicates settings that cannot be used.
	ErrBadConfig = errors.New("bad configuration")
)
