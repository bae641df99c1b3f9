// Package history supplies monthly return histories for tickers.
package history

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aristath/goaleval/internal/domain"
)

// DefaultYears is the default history window
const DefaultYears = 5

// Provider supplies aligned monthly returns; see domain.ReturnHistoryProvider
type Provider = domain.ReturnHistoryProvider

// PricePoint is a single adjusted close
type PricePoint struct {
	Date  time.Time
	Close float64
}

// Series is one ticker's monthly return series
type Series struct {
	Ticker  string
	Periods []time.Time
	Returns []float64
}

// monthStart truncates t to the first instant of its month in UTC
func monthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthlyReturnsFromPrices converts closes into month-over-month returns.
// Prices are bucketed by calendar month (the last close in a month wins),
// unusable prices are skipped, and the first month, which has no prior
// close, produces no return.
func MonthlyReturnsFromPrices(ticker string, prices []PricePoint) Series {
	byMonth := make(map[time.Time]PricePoint)
	for _, p := range prices {
		if p.Close <= 0 || math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			continue
		}
		key := monthStart(p.Date)
		if prev, ok := byMonth[key]; !ok || !p.Date.Before(prev.Date) {
			byMonth[key] = p
		}
	}

	months := make([]time.Time, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	s := Series{Ticker: ticker}
	for i := 1; i < len(months); i++ {
		prev := byMonth[months[i-1]].Close
		cur := byMonth[months[i]].Close
		s.Periods = append(s.Periods, months[i])
		s.Returns = append(s.Returns, cur/prev-1)
	}
	return s
}

// AlignSeries joins series on the periods they all share, in chronological
// order, with one column per series in input order.
func AlignSeries(series []Series) (*domain.ReturnMatrix, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no series to align", domain.ErrDataUnavailable)
	}

	lookups := make([]map[time.Time]float64, len(series))
	for i, s := range series {
		if len(s.Periods) != len(s.Returns) {
			return nil, fmt.Errorf("series %s has %d periods but %d returns", s.Ticker, len(s.Periods), len(s.Returns))
		}
		if len(s.Returns) == 0 {
			return nil, fmt.Errorf("%w: no returns for %s", domain.ErrDataUnavailable, s.Ticker)
		}
		m := make(map[time.Time]float64, len(s.Periods))
		for j, p := range s.Periods {
			m[p] = s.Returns[j]
		}
		lookups[i] = m
	}

	var common []time.Time
	for _, p := range series[0].Periods {
		shared := true
		for _, m := range lookups[1:] {
			if _, ok := m[p]; !ok {
				shared = false
				break
			}
		}
		if shared {
			common = append(common, p)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	if len(common) == 0 {
		return nil, fmt.Errorf("%w: tickers share no common periods", domain.ErrDataUnavailable)
	}

	out := &domain.ReturnMatrix{
		Periods: common,
		Tickers: make([]string, len(series)),
		Returns: make([][]float64, len(common)),
	}
	for i, s := range series {
		out.Tickers[i] = s.Ticker
	}
	for r, p := range common {
		row := make([]float64, len(series))
		for c, m := range lookups {
			row[c] = m[p]
		}
		out.Returns[r] = row
	}
	return out, nil
}
