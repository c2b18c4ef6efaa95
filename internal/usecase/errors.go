package usecase

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidLeague = errors.New("invalid league")
	// ErrDataIntegrity means the market dataset is unusable or not loaded.
	ErrDataIntegrity = errors.New("market dataset unavailable")
	// ErrUpstream means a league rights source failed; the cause stays in the chain.
	ErrUpstream = errors.New("rights source failed")
)
