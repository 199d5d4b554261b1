package domain

import "errors"

var (
	ErrInvalidFormat      = errors.New("invalid key format")
	ErrGeneratorExhausted = errors.New("key generator exhausted")
	ErrSessionClosed      = errors.New("session closed")
	ErrUnknownCommand     = errors.New("unknown control command")
)
