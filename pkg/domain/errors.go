package domain

import "errors"

// ErrSessionNotFound is returned when a chat has no session record in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrMetadataNotFound is returned when a message has no (unexpired) metadata record.
var ErrMetadataNotFound = errors.New("message metadata not found")
