// Package evaluation runs the full quantitative evaluation of a portfolio
// against a free-text goal.
package evaluation

import (
	"github.com/aristath/goaleval/internal/domain"
	"github.com/aristath/goaleval/internal/modules/goals"
)

// MaxNumPaths bounds caller-requested simulation sizes
const MaxNumPaths = 100000

// Request is one evaluation. Non-nil overrides replace values parsed from Goal.
type Request struct {
	StartingWealth      *float64         `json:"starting_wealth,omitempty"`
	TargetWealth        *float64         `json:"target_wealth,omitempty"`
	TimelineYears       *int             `json:"timeline_years,omitempty"`
	MonthlyContribution *float64         `json:"monthly_contribution,omitempty"`
	Goal                string           `json:"goal"`
	Portfolio           domain.Portfolio `json:"portfolio"`
	// NumPaths overrides the configured path count when positive
	NumPaths int `json:"num_paths,omitempty"`
}

// Overrides returns the explicit goal overrides carried by the request
func (r Request) Overrides() goals.Overrides {
	return goals.Overrides{
		StartingWealth:      r.StartingWealth,
		TargetWealth:        r.TargetWealth,
		TimelineYears:       r.TimelineYears,
		MonthlyContribution: r.MonthlyContribution,
	}
}

// TickerRisk describes the risk status of one ticker
type TickerRisk struct {
	Record         *domain.TickerRiskRecord `json:"record,omitempty"`
	Ticker         string                   `json:"ticker"`
	Concerns       []string                 `json:"concerns"`
	KnownLeveraged bool                     `json:"known_leveraged"`
}
