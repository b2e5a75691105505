package chat

import "errors"

var (
	// ErrMessageRequired is returned for a blank visitor message.
	ErrMessageRequired = errors.New("chat: message is required")
	// ErrCompletionFailed wraps any provider error.
	ErrCompletionFailed = errors.New("chat: completion failed")
	// ErrUnexpectedResponse means the provider answered without usable text.
	ErrUnexpectedResponse = errors.New("chat: unexpected response format")
)
