package evaluation

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/goaleval/internal/domain"
	"github.com/aristath/goaleval/internal/modules/goals"
	"github.com/aristath/goaleval/internal/modules/history"
	"github.com/aristath/goaleval/internal/modules/optimization"
	"github.com/aristath/goaleval/internal/modules/portfolio"
	"github.com/aristath/goaleval/internal/modules/scoring"
	"github.com/aristath/goaleval/internal/modules/simulation"
	"github.com/aristath/goaleval/internal/modules/tickerrisk"
)

// TickerScreener raises risk concerns for tickers
type TickerScreener interface {
	Validate(ctx context.Context, tickers []string) []string
	Lookup(ctx context.Context, ticker string) (*domain.TickerRiskRecord, error)
}

// Config tunes the pipeline
type Config struct {
	HistoryYears int
	Tolerance    float64
	NumPaths     int
	BlockSize    int
	Workers      int
}

// DefaultConfig returns the standard pipeline settings
func DefaultConfig() Config {
	return Config{
		HistoryYears: history.DefaultYears,
		Tolerance:    portfolio.DefaultTolerance,
		NumPaths:     simulation.DefaultNumPaths,
		BlockSize:    simulation.DefaultBlockSize,
	}
}

// Service orchestrates parsing, validation, data retrieval, simulation and scoring
type Service struct {
	history  history.Provider
	screener TickerScreener
	engine   *scoring.Engine
	cfg      Config
	newID    func() string
	log      zerolog.Logger
}

// NewService creates an evaluation service. screener may be nil.
func NewService(provider history.Provider, screener TickerScreener, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		history:  provider,
		screener: screener,
		engine:   scoring.NewEngine(log),
		cfg:      cfg,
		newID:    uuid.NewString,
		log:      log.With().Str("service", "evaluation").Logger(),
	}
}

// ParseGoal resolves goal text and overrides into parameters
func (s *Service) ParseGoal(text string, o goals.Overrides) domain.GoalParameters {
	return goals.Resolve(text, o)
}

// ValidatePortfolio checks the allocation invariants with the configured tolerance
func (s *Service) ValidatePortfolio(p domain.Portfolio) (bool, string) {
	return portfolio.Validate(p, s.cfg.Tolerance)
}

// TickerRisk reports the pattern and classifier view of a single ticker
func (s *Service) TickerRisk(ctx context.Context, symbol string) (TickerRisk, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	out := TickerRisk{Ticker: symbol, Concerns: tickerrisk.PatternConcerns([]string{symbol})}

	if tickerrisk.IsKnownLeveraged(symbol) {
		out.KnownLeveraged = true
		return out, nil
	}
	if s.screener == nil {
		return out, fmt.Errorf("%w: no ticker screener configured", domain.ErrClassificationUnavailable)
	}

	rec, err := s.screener.Lookup(ctx, symbol)
	if err != nil {
		return out, err
	}
	out.Record = rec
	if rec.IsRisky && rec.WarningMessage != "" {
		out.Concerns = append(out.Concerns, rec.WarningMessage)
	}
	return out, nil
}

// Evaluate always produces a report. When the quantitative pipeline cannot
// finish, the report is the neutral fallback carrying the failure.
func (s *Service) Evaluate(ctx context.Context, req Request) (report domain.ScoreReport) {
	start := time.Now()
	id := s.newID()
	log := s.log.With().Str("evaluation_id", id).Logger()

	params := goals.Resolve(req.Goal, req.Overrides())
	concerns := scoring.NewConcerns()

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Evaluation panicked")
			report = scoring.NeutralReport(params, fmt.Errorf("internal error: %v", r), concerns)
		}
		report.EvaluationID = id

		outcome := outcomeComplete
		if report.Degraded {
			outcome = outcomeDegraded
		}
		elapsed := time.Since(start)
		evaluationsTotal.WithLabelValues(outcome).Inc()
		evaluationDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
		probabilityOfSuccess.Observe(report.ProbabilityOfSuccess)

		log.Info().
			Str("outcome", outcome).
			Float64("probability", report.ProbabilityOfSuccess).
			Int("concerns", len(report.Concerns)).
			Dur("elapsed", elapsed).
			Msg("Evaluation completed")
	}()

	if ok, msg := portfolio.Validate(req.Portfolio, s.cfg.Tolerance); !ok {
		log.Warn().Str("issue", msg).Msg("Portfolio validation issue, continuing")
		concerns.Add(portfolio.ValidationConcern(msg))
	}

	symbols := req.Portfolio.Symbols()
	if s.screener != nil {
		concerns.Add(s.screener.Validate(ctx, symbols)...)
	}

	report, err := s.quantitative(ctx, req, params, concerns)
	if err != nil {
		if errors.Is(err, domain.ErrDataUnavailable) {
			log.Warn().Err(err).Msg("Return data unavailable, using neutral evaluation")
		} else {
			log.Error().Err(err).Msg("Quantitative evaluation failed, using neutral evaluation")
		}
		return scoring.NeutralReport(params, err, concerns)
	}
	return report
}

func (s *Service) quantitative(ctx context.Context, req Request, params domain.GoalParameters, concerns *scoring.Concerns) (domain.ScoreReport, error) {
	symbols := req.Portfolio.Symbols()
	if len(symbols) == 0 {
		return domain.ScoreReport{}, fmt.Errorf("%w: portfolio has no tickers", domain.ErrDataUnavailable)
	}
	if s.history == nil {
		return domain.ScoreReport{}, fmt.Errorf("%w: no history provider configured", domain.ErrDataUnavailable)
	}

	m, err := s.history.MonthlyReturns(ctx, symbols, s.cfg.HistoryYears)
	if err != nil {
		return domain.ScoreReport{}, fmt.Errorf("failed to fetch return history: %w", err)
	}

	if cov, err := optimization.EstimateCovariance(m); err != nil {
		s.log.Debug().Err(err).Msg("Covariance unavailable")
	} else if vol, err := cov.PortfolioVolatility(req.Portfolio.Weights()); err == nil {
		s.log.Debug().
			Str("method", cov.Method).
			Float64("shrinkage", cov.Shrinkage).
			Float64("annual_volatility", vol).
			Msg("Estimated covariance")
	}

	sim := &simulation.Simulator{
		BlockSize: s.cfg.BlockSize,
		NumPaths:  s.numPaths(req.NumPaths),
		Workers:   s.cfg.Workers,
	}
	result, err := sim.Run(ctx, params, req.Portfolio, m)
	if err != nil {
		return domain.ScoreReport{}, fmt.Errorf("simulation failed: %w", err)
	}

	return s.engine.Score(result, req.Portfolio, params, m, concerns)
}

func (s *Service) numPaths(requested int) int {
	switch {
	case requested > MaxNumPaths:
		return MaxNumPaths
	case requested > 0:
		return requested
	default:
		return s.cfg.NumPaths
	}
}
