package model

import "errors"

var (
	// ErrMalformedSource means the question page does not have the expected shape.
	ErrMalformedSource = errors.New("malformed question source")
	// ErrNetworkFailure means the question page could not be fetched.
	ErrNetworkFailure = errors.New("network failure")
	// ErrNotificationFailed covers authentication, connection and send errors of the mailer.
	ErrNotificationFailed = errors.New("notification failed")
	// ErrPersistenceFailure means a question file or result could not be written or read.
	ErrPersistenceFailure = errors.New("persistence failure")
)
