package models

import "errors"

// Application-wide standard errors
var (
	// Player registry / storage
	ErrPlayerNotFound    = errors.New("player not found")
	ErrMalformedSnapshot = errors.New("malformed player snapshot") // stored document cannot be turned back into a Player
	ErrStoreUnavailable  = errors.New("player store unavailable")

	// Narrative generation
	ErrNarrativeGenerationFailed = errors.New("narrative generation failed")
	ErrInvalidNarrative          = errors.New("invalid narrative moment")

	// General Request/Server Errors
	ErrInvalidInput   = errors.New("invalid input data")
	ErrInternalServer = errors.New("internal server error")
)
