// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"time"
)

// MaxTimelineYears bounds the simulated horizon
const MaxTimelineYears = 100

// GoalParameters holds the financial parameters of an investment goal.
// Values are produced once per evaluation and not mutated afterwards.
type GoalParameters struct {
	GoalDescription     string  `json:"goal_description"`
	StartingWealth      float64 `json:"starting_wealth"`
	TargetWealth        float64 `json:"target_wealth"`
	MonthlyContribution float64 `json:"monthly_contribution"`
	TimelineYears       int     `json:"timeline_years"`
}

// Months returns the simulated horizon in months, at most MaxTimelineYears
func (g GoalParameters) Months() int {
	if g.TimelineYears <= 0 {
		return 0
	}
	return min(g.TimelineYears, MaxTimelineYears) * 12
}

// Allocation is a single ticker weight inside a portfolio.
// AllocationPercent is nil when the field was absent from the input.
type Allocation struct {
	Symbol            string   `json:"symbol" validate:"required"`
	Reasoning         string   `json:"reasoning,omitempty"`
	AllocationPercent *float64 `json:"allocation_percent" validate:"required,gte=0,lte=100"`
}

// NewAllocation builds an allocation with a percent set
func NewAllocation(symbol string, percent float64) Allocation {
	return Allocation{Symbol: symbol, AllocationPercent: &percent}
}

// Percent returns the allocation percentage, 0 when absent
func (a Allocation) Percent() float64 {
	if a.AllocationPercent == nil {
		return 0
	}
	return *a.AllocationPercent
}

// Portfolio is the proposed set of allocations, in the order supplied by the caller
type Portfolio struct {
	Tickers []Allocation `json:"tickers" validate:"required,min=1,max=10,dive"`
}

// Symbols returns the ticker symbols in allocation order
func (p Portfolio) Symbols() []string {
	symbols := make([]string, len(p.Tickers))
	for i, t := range p.Tickers {
		symbols[i] = t.Symbol
	}
	return symbols
}

// Weights returns allocation fractions (percent / 100) in allocation order
func (p Portfolio) Weights() []float64 {
	weights := make([]float64, len(p.Tickers))
	for i, t := range p.Tickers {
		weights[i] = t.Percent() / 100
	}
	return weights
}

// TotalAllocation returns the sum of allocation percentages
func (p Portfolio) TotalAllocation() float64 {
	var total float64
	for _, t := range p.Tickers {
		total += t.Percent()
	}
	return total
}

// ReturnMatrix holds monthly returns indexed by period (rows) and ticker (columns).
// Returns[i][j] is the return of Tickers[j] over Periods[i], as a decimal.
type ReturnMatrix struct {
	Periods []time.Time `json:"periods" msgpack:"periods"`
	Tickers []string    `json:"tickers" msgpack:"tickers"`
	Returns [][]float64 `json:"returns" msgpack:"returns"`
}

// Rows returns the number of periods
func (m *ReturnMatrix) Rows() int {
	if m == nil {
		return 0
	}
	return len(m.Returns)
}

// ColumnIndex returns the column of a ticker, or -1 when absent
func (m *ReturnMatrix) ColumnIndex(symbol string) int {
	for i, t := range m.Tickers {
		if t == symbol {
			return i
		}
	}
	return -1
}

// Column returns a copy of the return series for one ticker
func (m *ReturnMatrix) Column(symbol string) ([]float64, error) {
	idx := m.ColumnIndex(symbol)
	if idx < 0 {
		return nil, fmt.Errorf("%w: no return history for %s", ErrDataUnavailable, symbol)
	}
	col := make([]float64, len(m.Returns))
	for i, row := range m.Returns {
		col[i] = row[idx]
	}
	return col, nil
}

// Select returns a matrix restricted to the given tickers, in the given order.
// Every requested ticker must be present.
func (m *ReturnMatrix) Select(symbols []string) (*ReturnMatrix, error) {
	indices := make([]int, len(symbols))
	for i, s := range symbols {
		idx := m.ColumnIndex(s)
		if idx < 0 {
			return nil, fmt.Errorf("%w: no return history for %s", ErrDataUnavailable, s)
		}
		indices[i] = idx
	}

	out := &ReturnMatrix{
		Periods: append([]time.Time(nil), m.Periods...),
		Tickers: append([]string(nil), symbols...),
		Returns: make([][]float64, len(m.Returns)),
	}
	for r, row := range m.Returns {
		selected := make([]float64, len(indices))
		for c, idx := range indices {
			selected[c] = row[idx]
		}
		out.Returns[r] = selected
	}
	return out, nil
}

// SimulationResult is the outcome of one Monte Carlo run.
// It is recomputed in full on every run.
type SimulationResult struct {
	TerminalWealths      []float64 `json:"-"`
	ProbabilityOfSuccess float64   `json:"probability_of_success"`
	MedianWealth         float64   `json:"median_wealth"`
	P10Wealth            float64   `json:"p10_wealth"`
	P25Wealth            float64   `json:"p25_wealth"`
	P75Wealth            float64   `json:"p75_wealth"`
	P90Wealth            float64   `json:"p90_wealth"`
	NumPaths             int       `json:"num_paths"`
	Months               int       `json:"months"`
	Seed                 uint32    `json:"seed"`
	BlockBootstrap       bool      `json:"block_bootstrap"`
}

// ScoreReport is the quantitative evaluation of a portfolio against a goal
type ScoreReport struct {
	EvaluationID         string            `json:"evaluation_id,omitempty"`
	Goal                 *GoalParameters   `json:"goal,omitempty"`
	Simulation           *SimulationResult `json:"simulation,omitempty"`
	Reasoning            string            `json:"reasoning"`
	Concerns             []string          `json:"concerns"`
	ProbabilityOfSuccess float64           `json:"probability_of_success"`
	DiversificationScore float64           `json:"diversification_score"`
	RiskScore            float64           `json:"risk_score"`
	ReturnScore          float64           `json:"return_score"`
	Degraded             bool              `json:"degraded"`
}

// TickerRiskRecord is a cached risk classification for one ticker
type TickerRiskRecord struct {
	CachedAt       time.Time `json:"cached_at"`
	Ticker         string    `json:"ticker"`
	WarningMessage string    `json:"warning_message"`
	SearchResult   string    `json:"search_result"`
	IsLeveraged    bool      `json:"is_leveraged"`
	IsInverse      bool      `json:"is_inverse"`
	IsETN          bool      `json:"is_etn"`
	IsDelisted     bool      `json:"is_delisted"`
	IsRisky        bool      `json:"is_risky"`
}

// FreshAt reports whether the record is still within ttl at the given instant
func (r *TickerRiskRecord) FreshAt(now time.Time, ttl time.Duration) bool {
	if r == nil || r.CachedAt.IsZero() {
		return false
	}
	return now.Sub(r.CachedAt) <= ttl
}
