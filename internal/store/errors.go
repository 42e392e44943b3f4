package store

import "errors"

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateLogin = errors.New("login already registered")
	ErrStatusConflict = errors.New("request status changed concurrently")
)
