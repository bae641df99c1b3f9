package tickerrisk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/goaleval/internal/domain"
)

// Validator combines the static pattern list with cached classifications
type Validator struct {
	store      Store
	classifier Classifier
	now        func() time.Time
	log        zerolog.Logger
}

// NewValidator creates a validator. classifier may be nil, in which case only
// cached records and the pattern list are consulted.
func NewValidator(store Store, classifier Classifier, log zerolog.Logger) *Validator {
	return &Validator{
		store:      store,
		classifier: classifier,
		now:        time.Now,
		log:        log.With().Str("component", "ticker_risk").Logger(),
	}
}

// Validate returns risk concerns for tickers: pattern concerns first, then
// warnings from classifications of the remaining tickers. It never fails;
// classification problems are logged and the ticker is skipped.
func (v *Validator) Validate(ctx context.Context, tickers []string) []string {
	concerns := PatternConcerns(tickers)

	seen := make(map[string]bool, len(tickers))
	for _, ticker := range tickers {
		key := strings.ToUpper(ticker)
		if seen[key] || IsKnownLeveraged(ticker) {
			continue
		}
		seen[key] = true

		rec, err := v.Lookup(ctx, ticker)
		if err != nil {
			v.log.Warn().Err(err).Str("ticker", ticker).Msg("Ticker classification unavailable")
			continue
		}
		if rec.IsRisky && rec.WarningMessage != "" {
			concerns = append(concerns, rec.WarningMessage)
		}
	}
	return concerns
}

// Lookup returns the classification for ticker, from the store when fresh,
// otherwise from the classifier (and then persisted).
func (v *Validator) Lookup(ctx context.Context, ticker string) (*domain.TickerRiskRecord, error) {
	cached, err := v.store.Get(ctx, ticker)
	if err != nil {
		v.log.Warn().Err(err).Str("ticker", ticker).Msg("Ticker cache read failed, treating as miss")
	} else if cached != nil {
		v.log.Debug().Str("ticker", ticker).Msg("Ticker cache hit")
		return cached, nil
	}

	if v.classifier == nil {
		return nil, fmt.Errorf("%w: no classifier configured", domain.ErrClassificationUnavailable)
	}

	text, err := v.classifier.Research(ctx, ticker, ResearchQuery(ticker))
	if err != nil {
		if !errors.Is(err, domain.ErrClassificationUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrClassificationUnavailable, err)
		}
		return nil, err
	}

	rec := Classify(ticker, text, v.now())
	if err := v.store.Put(ctx, rec); err != nil {
		v.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache ticker classification")
	}
	return &rec, nil
}
