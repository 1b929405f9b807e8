package client

import "errors"

var (
	// ErrUnavailable covers network failures, timeouts and 5xx answers.
	ErrUnavailable = errors.New("server unavailable")
	// ErrUnauthorized means the server rejected the credentials or token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAuthExpired is returned once a refresh has also failed; the user
	// has to log in again.
	ErrAuthExpired = errors.New("authentication expired")
	// ErrMalformedResponse is a response body that could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrLocalDataNotAvailable means there is no session stored locally.
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)
