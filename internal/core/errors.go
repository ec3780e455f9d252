package core

// Error codes surfaced to clients on the socket boundary.
const (
	ErrCodeBadRequest        = "bad_request"
	ErrCodeIdentityMismatch  = "identity_mismatch"
	ErrCodeValidationFailed  = "validation_failed"
	ErrCodePersistenceFailed = "persistence_failed"
	ErrCodeRateLimited       = "rate_limited"
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
