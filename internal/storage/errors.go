// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// ErrSessionNotFound is returned when a session doesn't exist.
// Use errors.Is(err, ErrSessionNotFound) to check for this error.
var ErrSessionNotFound = &SessionError{Message: "session not found"}

// ErrSessionIDRequired is returned when saving a session without an ID.
var ErrSessionIDRequired = &SessionError{Message: "session ID required"}

// SessionError represents a session-store error.
type SessionError struct {
	Message string
}

// Error implements the error interface.
func (e *SessionError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing session errors.
func (e *SessionError) Is(target error) bool {
	t, ok := target.(*SessionError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
