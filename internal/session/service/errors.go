package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrInvalidReset       = errors.New("invalid_reset_token")
	ErrSubjectMismatch    = errors.New("subject_mismatch")
	ErrUserNotFound       = errors.New("user_not_found")
)
