package domain

import "errors"

var (
	// ErrDataUnavailable is returned when return history cannot be supplied for a ticker
	ErrDataUnavailable = errors.New("return history unavailable")

	// ErrInsufficientData is returned when a computation needs more periods than available
	ErrInsufficientData = errors.New("insufficient data")

	// ErrClassificationUnavailable is returned when the ticker classifier cannot answer
	ErrClassificationUnavailable = errors.New("ticker classification unavailable")

	// ErrInvalidPortfolio is returned when upstream text holds no usable portfolio
	ErrInvalidPortfolio = errors.New("invalid portfolio")
)
