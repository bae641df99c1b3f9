package domain

import "context"

// ReturnHistoryProvider supplies monthly historical returns for a set of tickers.
// Implementations return one column per ticker, aligned on common periods, with the
// first (undefined) return dropped. Failures wrap ErrDataUnavailable.
// Retry policy belongs to the caller.
type ReturnHistoryProvider interface {
	MonthlyReturns(ctx context.Context, tickers []string, years int) (*ReturnMatrix, error)
}

// TickerClassifier answers a free-text research query about a ticker.
// The response is interpreted by keyword matching, so any text source works.
type TickerClassifier interface {
	Research(ctx context.Context, ticker, query string) (string, error)
}
