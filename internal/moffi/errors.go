package moffi

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthFailed is returned by Signin when the credentials are refused
	// or the signin call itself cannot complete.
	ErrAuthFailed = errors.New("moffi: authentication failed")
	// ErrAuthRequired is returned by Query when no token is held.
	ErrAuthRequired = errors.New("moffi: authentication required")
)

// RemoteError is a transport failure or a non-2xx response.
type RemoteError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("moffi: %s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("moffi: %s %s (status=%d): %v", e.Method, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("moffi: %s %s (status=%d): %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *RemoteError) Unwrap() error { return e.Err }
