package core

// Error codes for domain errors.
const (
	ErrCodeAlreadyJoined  = "already_joined"
	ErrCodeNotInRoom      = "not_in_room"
	ErrCodeRoomNotFound   = "room_not_found"
	ErrCodeUserNotFound   = "user_not_found"
	ErrCodeBadRequest     = "bad_request"
	ErrCodeRateLimited    = "rate_limited"
	ErrCodeInvalidMessage = "invalid_message"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
