package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid timer transition")
	ErrTimerNotFound     = errors.New("timer not found")
)
