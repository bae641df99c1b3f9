// Package simulation runs the block-bootstrap Monte Carlo projection of
// portfolio wealth.
package simulation

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/goaleval/internal/domain"
	"github.com/aristath/goaleval/pkg/formulas"
)

// Defaults for a simulation run
const (
	DefaultNumPaths  = 3000
	DefaultBlockSize = 6

	ctxCheckMonths = 120
)

// Simulator projects terminal wealth by resampling contiguous blocks of
// historical portfolio returns.
type Simulator struct {
	BlockSize int
	NumPaths  int
	// Workers bounds the number of goroutines; <= 0 means runtime.NumCPU()
	Workers int
}

// NewSimulator creates a simulator with the default block size and path count
func NewSimulator() *Simulator {
	return &Simulator{BlockSize: DefaultBlockSize, NumPaths: DefaultNumPaths}
}

// Run simulates NumPaths wealth paths over the goal horizon and summarises
// the terminal wealth distribution. Identical inputs always give identical
// results, independent of the worker count.
func (s *Simulator) Run(ctx context.Context, params domain.GoalParameters, p domain.Portfolio, m *domain.ReturnMatrix) (*domain.SimulationResult, error) {
	numPaths := s.NumPaths
	if numPaths <= 0 {
		numPaths = DefaultNumPaths
	}
	blockSize := s.BlockSize
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if m == nil {
		return nil, fmt.Errorf("%w: no return matrix", domain.ErrDataUnavailable)
	}

	selected, err := m.Select(p.Symbols())
	if err != nil {
		return nil, err
	}
	series := formulas.WeightedSeries(selected.Returns, p.Weights())

	months := params.Months()
	if months > 0 && len(series) == 0 {
		return nil, fmt.Errorf("%w: empty return history", domain.ErrDataUnavailable)
	}

	seed, err := DeriveSeed(params.GoalDescription, p, numPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to derive seed: %w", err)
	}

	terminal := make([]float64, numPaths)
	useBlocks := len(series) > blockSize

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > numPaths {
		workers = numPaths
	}
	chunk := (numPaths + workers - 1) / workers

	g, gCtx := errgroup.WithContext(ctx)
	for start := 0; start < numPaths; start += chunk {
		end := min(start+chunk, numPaths)
		g.Go(func() error {
			for i := start; i < end; i++ {
				w, err := simulatePath(gCtx, pathRNG(seed, i), series, params, months, blockSize, useBlocks)
				if err != nil {
					return err
				}
				terminal[i] = w
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulation interrupted: %w", err)
	}

	pct := formulas.Percentiles(terminal, 10, 25, 50, 75, 90)
	return &domain.SimulationResult{
		TerminalWealths:      terminal,
		ProbabilityOfSuccess: formulas.FractionAtOrAbove(terminal, params.TargetWealth) * 100,
		P10Wealth:            pct[0],
		P25Wealth:            pct[1],
		MedianWealth:         pct[2],
		P75Wealth:            pct[3],
		P90Wealth:            pct[4],
		NumPaths:             numPaths,
		Months:               months,
		Seed:                 seed,
		BlockBootstrap:       useBlocks,
	}, nil
}

// simulatePath walks one wealth path. With block sampling a new block start
// is drawn at every block boundary, uniform over [0, len(series)-blockSize];
// otherwise each month is an independent draw. ctx is polled every
// ctxCheckMonths months.
func simulatePath(ctx context.Context, rng *rand.Rand, series []float64, params domain.GoalParameters, months, blockSize int, useBlocks bool) (float64, error) {
	wealth := params.StartingWealth
	blockStart := 0
	for month := 0; month < months; month++ {
		if month%ctxCheckMonths == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		var r float64
		if useBlocks {
			offset := month % blockSize
			if offset == 0 {
				blockStart = rng.IntN(len(series) - blockSize + 1)
			}
			r = series[blockStart+offset]
		} else {
			r = series[rng.IntN(len(series))]
		}
		wealth = wealth*(1+r) + params.MonthlyContribution
	}
	return wealth, nil
}

// pathRNG returns the private stream for one path
func pathRNG(seed uint32, path int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(path)))
}

// DeriveSeed hashes the goal text, the key-sorted JSON of the portfolio and the
// path count with MD5 and reduces the digest modulo 2^32.
func DeriveSeed(goalDescription string, p domain.Portfolio, numPaths int) (uint32, error) {
	canonical, err := canonicalJSON(p)
	if err != nil {
		return 0, err
	}
	sum := md5.Sum([]byte(goalDescription + canonical + strconv.Itoa(numPaths)))

	// Low 32 bits of the big-endian digest
	return binary.BigEndian.Uint32(sum[12:]), nil
}

// canonicalJSON encodes v with object keys sorted at every level
func canonicalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", err
	}
	// encoding/json writes map keys in sorted order
	sorted, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(sorted), nil
}
