package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrWSDisconnect     = errors.New("websocket disconnected")
	ErrInvalidBankroll  = errors.New("invalid bankroll")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrVenueUnavailable = errors.New("venue unavailable")
)
