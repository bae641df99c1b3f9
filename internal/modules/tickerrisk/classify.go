package tickerrisk

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aristath/goaleval/internal/domain"
)

// MaxSearchResultLength bounds the stored research excerpt, in characters
const MaxSearchResultLength = 500

var (
	leveragedKeywords = []string{
		"leveraged", "3x", "2x", "triple", "double",
		"ultra", "proshares ultra", "direxion daily", "-3x", "-2x",
	}
	inverseKeywords  = []string{"inverse", "short", "bear", "inverse etf"}
	etnKeywords      = []string{"etn", "exchange traded note"}
	delistedKeywords = []string{"delisted", "no longer trades", "discontinued", "merged"}

	clauseBoundary = regexp.MustCompile(`[.;,!?:\n]+|\s(?:and|but|or|while|although|however)\s`)
	negation       = regexp.MustCompile(`\b(?:not|no|never|neither|nor|non|without)\b|n['’]t\b`)
)

// ResearchQuery is the question put to the classifier for a ticker
func ResearchQuery(ticker string) string {
	return fmt.Sprintf("Is %s a leveraged fund, an inverse fund or an exchange traded note, and is it still listed?", ticker)
}

// Classify derives risk flags from free research text by keyword matching.
// A keyword preceded by a negation in the same clause ("not a leveraged fund")
// does not count.
func Classify(ticker, text string, now time.Time) domain.TickerRiskRecord {
	clauses := clauseBoundary.Split(strings.ToLower(text), -1)

	rec := domain.TickerRiskRecord{
		Ticker:       ticker,
		IsLeveraged:  mentions(clauses, leveragedKeywords),
		IsInverse:    mentions(clauses, inverseKeywords),
		IsETN:        mentions(clauses, etnKeywords),
		IsDelisted:   mentions(clauses, delistedKeywords),
		SearchResult: truncate(text, MaxSearchResultLength),
		CachedAt:     now,
	}
	rec.IsRisky = rec.IsLeveraged || rec.IsInverse || rec.IsETN || rec.IsDelisted

	var parts []string
	if rec.IsLeveraged {
		parts = append(parts, "leveraged ETF")
	}
	if rec.IsInverse {
		parts = append(parts, "inverse ETF")
	}
	if rec.IsETN {
		parts = append(parts, "ETN")
	}
	if rec.IsDelisted {
		parts = append(parts, "delisted/discontinued")
	}
	if len(parts) > 0 {
		rec.WarningMessage = fmt.Sprintf("%s is %s - extreme risk", ticker, strings.Join(parts, "/"))
	}

	return rec
}

// mentions reports whether any keyword occurs un-negated in any clause
func mentions(clauses []string, keywords []string) bool {
	for _, clause := range clauses {
		for _, kw := range keywords {
			from := 0
			for {
				i := strings.Index(clause[from:], kw)
				if i < 0 {
					break
				}
				pos := from + i
				if !negation.MatchString(clause[:pos]) {
					return true
				}
				from = pos + len(kw)
			}
		}
	}
	return false
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
