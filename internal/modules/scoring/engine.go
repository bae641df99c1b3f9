// Package scoring turns simulation output and historical statistics into
// bounded scores, sanity-check concerns and a reasoning summary.
package scoring

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/aristath/goaleval/internal/domain"
	"github.com/aristath/goaleval/pkg/formulas"
)

// Financial bounds (annualised, decimal)
const (
	StockReturnLow         = 0.04
	StockReturnHigh        = 0.15
	VolatilityLow          = 0.05
	VolatilityHigh         = 0.25
	ExtremeVolatility      = 0.40
	ConcentrationThreshold = 0.60
	ConcentrationPenalty   = 0.7

	MinProbability = 0.5
	MaxProbability = 99.5
)

// Concern texts that do not carry numbers
const (
	ConcernVeryDifficult   = "Goal appears very difficult to achieve with this portfolio"
	ConcernAlreadyAchieved = "Goal already achieved with starting wealth"
)

// Engine computes ScoreReports
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a scoring engine
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "scoring").Logger()}
}

// Score evaluates a finished simulation against the goal. Concerns raised
// here are appended to concerns, which keeps its existing entries first.
func (e *Engine) Score(
	sim *domain.SimulationResult,
	p domain.Portfolio,
	params domain.GoalParameters,
	m *domain.ReturnMatrix,
	concerns *Concerns,
) (domain.ScoreReport, error) {
	if concerns == nil {
		concerns = NewConcerns()
	}

	selected, err := m.Select(p.Symbols())
	if err != nil {
		return domain.ScoreReport{}, err
	}
	weights := p.Weights()
	series := formulas.WeightedSeries(selected.Returns, weights)

	annualReturn := formulas.AnnualizedReturn(series)
	annualVol := formulas.AnnualizedVolatility(series)

	effectiveN := formulas.HerfindahlEffectiveN(weights)
	diversification := DiversificationScore(weights, concerns)
	risk := RiskScore(annualVol, concerns)
	ret := ReturnScore(annualReturn, concerns)
	probability := ProbabilityScore(sim.ProbabilityOfSuccess, params, concerns)

	// Advisory sanity checks
	if annualReturn > StockReturnHigh {
		concerns.Add(fmt.Sprintf("Historical returns (%.1f%%) exceed typical stock market returns", annualReturn*100))
	}
	if annualVol > VolatilityHigh {
		concerns.Add(fmt.Sprintf("Volatility (%.1f%%) is higher than typical diversified portfolios", annualVol*100))
	}

	reasoning := fmt.Sprintf(
		"Portfolio Analysis:\n"+
			"- Expected annual return: %.1f%%\n"+
			"- Annual volatility: %.1f%%\n"+
			"- Diversification: %d tickers, effective N = %.1f\n"+
			"- Probability of achieving $%s in %d years: %.1f%%\n"+
			"\n"+
			"The portfolio shows %s returns with %s risk. Diversification is %s.",
		annualReturn*100,
		annualVol*100,
		len(p.Tickers), effectiveN,
		humanize.Comma(int64(math.Round(params.TargetWealth))), params.TimelineYears, probability,
		CharacterizeReturn(annualReturn),
		CharacterizeVolatility(annualVol),
		CharacterizeDiversification(diversification),
	)

	e.log.Debug().
		Float64("annual_return", annualReturn).
		Float64("annual_volatility", annualVol).
		Float64("effective_n", effectiveN).
		Int("concerns", concerns.Len()).
		Msg("Scored portfolio")

	goal := params
	return domain.ScoreReport{
		Goal:                 &goal,
		Simulation:           sim,
		Reasoning:            reasoning,
		Concerns:             concerns.Items(),
		ProbabilityOfSuccess: round1(probability),
		DiversificationScore: round1(diversification),
		RiskScore:            round1(risk),
		ReturnScore:          round1(ret),
	}, nil
}

// DiversificationScore is effective N as a percentage of the ticker count,
// discounted when a single weight exceeds the concentration threshold.
func DiversificationScore(weights []float64, concerns *Concerns) float64 {
	if len(weights) == 0 {
		return 0
	}
	score := math.Min(100, formulas.HerfindahlEffectiveN(weights)/float64(len(weights))*100)

	maxWeight := weights[0]
	for _, w := range weights[1:] {
		maxWeight = math.Max(maxWeight, w)
	}
	if maxWeight > ConcentrationThreshold {
		score *= ConcentrationPenalty
		concerns.Add(fmt.Sprintf("Concentrated portfolio: %.0f%% in single ticker", maxWeight*100))
	}
	return score
}

// RiskScore maps annualised volatility to 0-100, lower volatility scoring higher
func RiskScore(vol float64, concerns *Concerns) float64 {
	switch {
	case vol < VolatilityLow:
		return 100
	case vol < VolatilityHigh:
		return 100 - 50*(vol-VolatilityLow)/(VolatilityHigh-VolatilityLow)
	case vol < ExtremeVolatility:
		return 50 - 30*(vol-VolatilityHigh)/(ExtremeVolatility-VolatilityHigh)
	default:
		concerns.Add(fmt.Sprintf("Extreme volatility (%.1f%% annual) - very high risk", vol*100))
		return 20
	}
}

// ReturnScore maps annualised return to 0-100
func ReturnScore(r float64, concerns *Concerns) float64 {
	switch {
	case r < StockReturnLow:
		return math.Max(20, r/StockReturnLow*40)
	case r < 0.08:
		return 40 + 30*(r-StockReturnLow)/(0.08-StockReturnLow)
	case r < 0.12:
		return 70 + 30*(r-0.08)/(0.12-0.08)
	case r <= StockReturnHigh:
		return 100
	default:
		concerns.Add(fmt.Sprintf("Unusually high historical returns (%.1f%%) - may not persist", r*100))
		return 100
	}
}

// ProbabilityScore clamps the simulated probability to [0.5, 99.5] and flags
// goals that are out of reach or already met.
func ProbabilityScore(probability float64, params domain.GoalParameters, concerns *Concerns) float64 {
	probability = math.Max(MinProbability, math.Min(MaxProbability, probability))

	if probability < 5 {
		concerns.Add(ConcernVeryDifficult)
	} else if probability > 95 && params.StartingWealth >= params.TargetWealth {
		concerns.Add(ConcernAlreadyAchieved)
	}
	return probability
}

// CharacterizeReturn describes an annualised return level
func CharacterizeReturn(r float64) string {
	switch {
	case r < 0.04:
		return "very low"
	case r < 0.06:
		return "conservative"
	case r < 0.08:
		return "moderate"
	case r < 0.10:
		return "solid"
	case r < 0.12:
		return "strong"
	default:
		return "very high"
	}
}

// CharacterizeVolatility describes an annualised volatility level
func CharacterizeVolatility(vol float64) string {
	switch {
	case vol < 0.08:
		return "very low"
	case vol < 0.12:
		return "low"
	case vol < 0.16:
		return "moderate"
	case vol < 0.20:
		return "elevated"
	case vol < 0.25:
		return "high"
	default:
		return "very high"
	}
}

// CharacterizeDiversification describes a diversification score
func CharacterizeDiversification(score float64) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "adequate"
	default:
		return "poor"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ConcernIncomplete marks a report produced without a finished simulation
const ConcernIncomplete = "Quantitative evaluation incomplete"

// NeutralReport is returned when the quantitative pipeline cannot finish.
// All scores are 50 and the reasoning carries the failure.
func NeutralReport(params domain.GoalParameters, failure error, concerns *Concerns) domain.ScoreReport {
	if concerns == nil {
		concerns = NewConcerns()
	}
	concerns.Add(ConcernIncomplete)

	reason := "unknown error"
	if failure != nil {
		reason = failure.Error()
	}

	goal := params
	return domain.ScoreReport{
		Goal:                 &goal,
		Reasoning:            "Quantitative evaluation could not be completed: " + reason,
		Concerns:             concerns.Items(),
		ProbabilityOfSuccess: 50,
		DiversificationScore: 50,
		RiskScore:            50,
		ReturnScore:          50,
		Degraded:             true,
	}
}
