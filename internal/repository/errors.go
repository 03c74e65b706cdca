package repository

import "errors"

var (
	// ErrUserNotFound indicates no record exists at the user's storage key.
	ErrUserNotFound = errors.New("user not found")
	// ErrThreadNotFound indicates a message append targeted a conversation whose
	// thread was never created.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrConversationNotFound indicates no summary matched the requested participants.
	ErrConversationNotFound = errors.New("conversation not found")
)
