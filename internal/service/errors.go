package service

import "errors"

var (
	ErrLinkExists         = errors.New("url already shortened")
	ErrAliasTaken         = errors.New("alias already taken")
	ErrLinkNotFound       = errors.New("link not found")
	ErrNotOwner           = errors.New("caller does not own this link")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserDisabled       = errors.New("user is disabled")
)
