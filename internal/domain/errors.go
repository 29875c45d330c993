package domain

import "errors"

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrConflict         = errors.New("concurrent modification")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidDocument  = errors.New("invalid document")
	ErrInvalidAsset     = errors.New("invalid asset")
	ErrRenderFailed     = errors.New("render failed")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrRecordCorrupt    = errors.New("certificate record corrupt")
	ErrPolicyFailed     = errors.New("security policy evaluation failed")
)
