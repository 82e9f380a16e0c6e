package utils

import "errors"

var (
	ErrInvalidPlan        = errors.New("invalid plan code")
	ErrOrderNotFound      = errors.New("order not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrDatabaseError      = errors.New("database error")
)
