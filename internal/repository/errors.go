package repository

import "errors"

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrURLTaken     = errors.New("url already shortened")
	ErrCodeTaken    = errors.New("code already in use")
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)
