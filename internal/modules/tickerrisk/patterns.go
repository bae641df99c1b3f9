// Package tickerrisk flags leveraged, inverse, exchange-traded-note and
// delisted tickers, caching classifications per ticker.
package tickerrisk

import (
	"fmt"
	"strings"
)

// LeveragedPatterns lists well-known leveraged and inverse ETFs
var LeveragedPatterns = []string{
	"TQQQ", "SQQQ", "UPRO", "SPXU", "SPXL", "TNA", "TZA",
	"SOXL", "SOXS", "UDOW", "SDOW", "UMDD", "SMDD",
	"URTY", "SRTY", "FAS", "FAZ", "CURE", "RXD",
	"LABU", "LABD", "TECL", "TECS", "WANT", "NEED",
}

var leveragedSet = func() map[string]bool {
	m := make(map[string]bool, len(LeveragedPatterns))
	for _, t := range LeveragedPatterns {
		m[t] = true
	}
	return m
}()

// IsKnownLeveraged reports whether ticker (any case) is on the static list
func IsKnownLeveraged(ticker string) bool {
	return leveragedSet[strings.ToUpper(ticker)]
}

// PatternConcern is the concern raised for a ticker on the static list
func PatternConcern(ticker string) string {
	return fmt.Sprintf("%s is a leveraged/inverse ETF - extreme risk", ticker)
}

// PatternConcerns returns one concern per listed ticker, in input order
func PatternConcerns(tickers []string) []string {
	concerns := []string{}
	for _, t := range tickers {
		if IsKnownLeveraged(t) {
			concerns = append(concerns, PatternConcern(t))
		}
	}
	return concerns
}
