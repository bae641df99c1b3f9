package history

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/client"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/aristath/goaleval/internal/domain"
)

// PriceSource fetches monthly adjusted closes covering at least years of history
type PriceSource interface {
	MonthlyCloses(ctx context.Context, symbol string, years int) ([]PricePoint, error)
}

// YahooProvider builds return matrices from Yahoo Finance monthly bars
type YahooProvider struct {
	source PriceSource
	log    zerolog.Logger
}

// NewYahooProvider creates a provider backed by go-yfinance
func NewYahooProvider(log zerolog.Logger) *YahooProvider {
	return NewYahooProviderWithSource(yfinanceSource{}, log)
}

// NewYahooProviderWithSource creates a provider over any price source
func NewYahooProviderWithSource(source PriceSource, log zerolog.Logger) *YahooProvider {
	return &YahooProvider{
		source: source,
		log:    log.With().Str("provider", "yahoo").Logger(),
	}
}

// MonthlyReturns fetches every ticker and aligns their returns on common months.
// Any ticker failure fails the whole request.
func (p *YahooProvider) MonthlyReturns(ctx context.Context, tickers []string, years int) (*domain.ReturnMatrix, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: no tickers requested", domain.ErrDataUnavailable)
	}
	if years <= 0 {
		years = DefaultYears
	}

	series := make([]Series, 0, len(tickers))
	for _, t := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
		}

		prices, err := p.source.MonthlyCloses(ctx, t, years)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrDataUnavailable, t, err)
		}
		s := MonthlyReturnsFromPrices(t, trimToYears(prices, years))
		if len(s.Returns) == 0 {
			return nil, fmt.Errorf("%w: %s has no usable price history", domain.ErrDataUnavailable, t)
		}
		p.log.Debug().Str("ticker", t).Int("months", len(s.Returns)).Msg("Fetched return history")
		series = append(series, s)
	}

	return AlignSeries(series)
}

// trimToYears keeps the most recent years*12+1 closes, enough for years*12 returns
func trimToYears(prices []PricePoint, years int) []PricePoint {
	keep := years*12 + 1
	if len(prices) <= keep {
		return prices
	}
	return prices[len(prices)-keep:]
}

// yahooPeriod maps a year count to the nearest Yahoo range that covers it
func yahooPeriod(years int) string {
	switch {
	case years <= 1:
		return "1y"
	case years <= 2:
		return "2y"
	case years <= 5:
		return "5y"
	case years <= 10:
		return "10y"
	default:
		return "max"
	}
}

// maxRequestTimeout is the per-request timeout when ctx carries no deadline
const maxRequestTimeout = 30 * time.Second

type yfinanceSource struct{}

// MonthlyCloses honours ctx: the request timeout follows the ctx deadline and
// a cancelled ctx returns immediately while the in-flight request drains.
func (yfinanceSource) MonthlyCloses(ctx context.Context, symbol string, years int) ([]PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := client.New(client.WithTimeout(requestTimeoutSeconds(ctx, time.Now())))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	t, err := ticker.New(strings.ToUpper(symbol), ticker.WithClient(c))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}

	type result struct {
		bars []models.Bar
		err  error
	}
	done := make(chan result, 1)
	go func() {
		bars, err := t.History(models.HistoryParams{
			Period:     yahooPeriod(years),
			Interval:   "1mo",
			AutoAdjust: true,
		})
		done <- result{bars: bars, err: err}
	}()

	var r result
	select {
	case <-ctx.Done():
		go func() {
			<-done
			c.Close()
		}()
		return nil, ctx.Err()
	case r = <-done:
		c.Close()
	}
	if r.err != nil {
		return nil, fmt.Errorf("failed to get historical prices: %w", r.err)
	}

	points := make([]PricePoint, 0, len(r.bars))
	for _, bar := range r.bars {
		price := bar.AdjClose
		if price == 0 {
			price = bar.Close
		}
		points = append(points, PricePoint{Date: bar.Date, Close: price})
	}
	return points, nil
}

// requestTimeoutSeconds maps the ctx deadline to go-yfinance's whole-second
// timeout, between 1 and maxRequestTimeout.
func requestTimeoutSeconds(ctx context.Context, now time.Time) int {
	timeout := maxRequestTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, deadline.Sub(now))
	}
	secs := int(math.Ceil(timeout.Seconds()))
	return max(secs, 1)
}
