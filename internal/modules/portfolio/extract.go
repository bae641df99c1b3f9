// Package portfolio validates proposed portfolios and recovers them from upstream text.
package portfolio

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/aristath/goaleval/internal/domain"
)

// Strategy pulls a candidate JSON document out of free text
type Strategy struct {
	Name    string
	Extract func(text string) (string, bool)
}

var (
	fencedPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
)

// Strategies is the extraction order: raw JSON, a fenced code block, then the
// widest brace-delimited span.
var Strategies = []Strategy{
	{Name: "raw", Extract: func(text string) (string, bool) {
		trimmed := strings.TrimSpace(text)
		return trimmed, json.Valid([]byte(trimmed))
	}},
	{Name: "fenced", Extract: func(text string) (string, bool) {
		m := fencedPattern.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return m[1], true
	}},
	{Name: "braces", Extract: func(text string) (string, bool) {
		m := objectPattern.FindString(text)
		return m, m != ""
	}},
}

// Extract decodes a portfolio from upstream text, trying each strategy in order.
// The first candidate that decodes as a JSON object with a "tickers" field wins.
func Extract(text string) (domain.Portfolio, string, error) {
	var lastErr error
	for _, s := range Strategies {
		candidate, ok := s.Extract(text)
		if !ok {
			continue
		}
		p, err := decode(candidate)
		if err != nil {
			lastErr = err
			continue
		}
		return p, s.Name, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: Could not parse portfolio", domain.ErrInvalidPortfolio)
	}
	return domain.Portfolio{}, "", lastErr
}

// ExtractAndValidate combines Extract and Validate. Extraction failures are
// reported as validation messages rather than errors.
func ExtractAndValidate(text string, tolerance float64) (domain.Portfolio, bool, string) {
	p, _, err := Extract(text)
	if err != nil {
		return domain.Portfolio{}, false, fmt.Sprintf("Portfolio parsing error: %v", err)
	}
	ok, msg := Validate(p, tolerance)
	return p, ok, msg
}

func decode(candidate string) (domain.Portfolio, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return domain.Portfolio{}, fmt.Errorf("%w: %v", domain.ErrInvalidPortfolio, err)
	}
	raw, ok := fields["tickers"]
	if !ok {
		return domain.Portfolio{}, fmt.Errorf("%w: Missing 'tickers' field", domain.ErrInvalidPortfolio)
	}

	var tickers []json.RawMessage
	if err := json.Unmarshal(raw, &tickers); err != nil {
		return domain.Portfolio{}, fmt.Errorf("%w: 'tickers' must be a list", domain.ErrInvalidPortfolio)
	}

	var p domain.Portfolio
	p.Tickers = make([]domain.Allocation, 0, len(tickers))
	for i, t := range tickers {
		var alloc domain.Allocation
		if err := json.Unmarshal(t, &alloc); err != nil {
			return domain.Portfolio{}, fmt.Errorf("%w: Ticker %d must be a dictionary", domain.ErrInvalidPortfolio, i)
		}
		p.Tickers = append(p.Tickers, alloc)
	}
	return p, nil
}
