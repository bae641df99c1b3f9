package portfolio

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/aristath/goaleval/internal/domain"
)

// DefaultTolerance is the allowed deviation of the allocation sum from 100%
const DefaultTolerance = 1.0

const (
	MinTickers = 1
	MaxTickers = 10
)

var (
	structValidator = validator.New()
	indexPattern    = regexp.MustCompile(`\[(\d+)\]`)
)

// Validate checks the portfolio invariants: 1-10 allocations, percentages
// summing to 100 within tolerance, and a symbol and allocation_percent on
// every allocation.
// It returns (true, "Valid") or (false, message) for the first violation found.
func Validate(p domain.Portfolio, tolerance float64) (bool, string) {
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}

	var fieldErrs validator.ValidationErrors
	if err := structValidator.Struct(p); err != nil && !errors.As(err, &fieldErrs) {
		return false, fmt.Sprintf("Portfolio parsing error: %v", err)
	}

	// Count violations take precedence over allocation and per-ticker checks
	if len(p.Tickers) < MinTickers {
		return false, "Must have at least 1 ticker"
	}
	if len(p.Tickers) > MaxTickers {
		return false, "Too many tickers (max 10 for reasonable evaluation)"
	}

	total := p.TotalAllocation()
	if math.Abs(total-100) > tolerance {
		return false, fmt.Sprintf("Allocations sum to %.1f%%, not 100%%", total)
	}

	for _, fe := range fieldErrs {
		idx := tickerIndex(fe.Namespace())
		switch fe.Field() {
		case "Symbol":
			return false, fmt.Sprintf("Ticker %d missing 'symbol' field", idx)
		case "AllocationPercent":
			if fe.Tag() == "required" {
				return false, fmt.Sprintf("Ticker %d missing 'allocation_percent' field", idx)
			}
			return false, fmt.Sprintf("Ticker %d has invalid allocation_percent %v", idx, p.Tickers[idx].Percent())
		}
	}

	return true, "Valid"
}

// ValidationConcern formats a validation failure the way it is reported in an evaluation
func ValidationConcern(message string) string {
	return "Portfolio validation issue: " + message
}

func tickerIndex(namespace string) int {
	m := indexPattern.FindStringSubmatch(namespace)
	if m == nil {
		return 0
	}
	idx, _ := strconv.Atoi(m[1])
	return idx
}
