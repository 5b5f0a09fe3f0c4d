package quota

import "errors"

// MaxUserIDLength is the width of usage_records.user_id.
const MaxUserIDLength = 255

// Module errors.
var (
	ErrRecordNotFound = errors.New("usage record not found")
	ErrUnauthorized   = errors.New("unauthorized request")
	ErrInvalidUserID  = errors.New("user id too long")
	ErrQuotaExceeded  = errors.New("free limit reached")
	ErrStorageFailure = errors.New("usage ledger unavailable")
)
