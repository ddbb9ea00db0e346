package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when a document does not exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned by a conditional create when the document is already stored
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidGameParams is returned when the game mode and end date do not agree
	ErrInvalidGameParams = errors.New("invalid game parameters")

	// ErrProviderUnavailable wraps transport failures talking to the market-data provider
	ErrProviderUnavailable = errors.New("market data provider unavailable")
)
