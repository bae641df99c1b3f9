package tickerrisk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/goaleval/internal/domain"
)

// FileStore keeps one JSON document per ticker in a directory
type FileStore struct {
	dir string
	ttl time.Duration
	now func() time.Time
	log zerolog.Logger
}

// NewFileStore creates the cache directory if needed
func NewFileStore(dir string, ttl time.Duration, log zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ticker cache directory: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FileStore{
		dir: dir,
		ttl: ttl,
		now: time.Now,
		log: log.With().Str("store", "file").Logger(),
	}, nil
}

func (s *FileStore) path(ticker string) string {
	return filepath.Join(s.dir, safeName(ticker)+".json")
}

// Get returns the cached record for ticker if present and fresh
func (s *FileStore) Get(_ context.Context, ticker string) (*domain.TickerRiskRecord, error) {
	data, err := os.ReadFile(s.path(ticker))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache for %s: %w", ticker, err)
	}

	var rec domain.TickerRiskRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("Corrupt ticker cache entry, treating as miss")
		return nil, nil
	}
	if !rec.FreshAt(s.now(), s.ttl) {
		return nil, nil
	}
	return &rec, nil
}

// Put writes the record atomically: a temp file in the same directory is renamed over the target
func (s *FileStore) Put(_ context.Context, rec domain.TickerRiskRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record for %s: %w", rec.Ticker, err)
	}

	tmp, err := os.CreateTemp(s.dir, safeName(rec.Ticker)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(rec.Ticker)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// Expire deletes records cached before olderThan. Unreadable files are removed too.
func (s *FileStore) Expire(ctx context.Context, olderThan time.Time) (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list ticker cache: %w", err)
	}

	var removed int64
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		full := filepath.Join(s.dir, e.Name())

		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		var rec domain.TickerRiskRecord
		if err := json.Unmarshal(data, &rec); err == nil && !rec.CachedAt.Before(olderThan) {
			continue
		}
		if err := os.Remove(full); err != nil {
			s.log.Warn().Err(err).Str("file", e.Name()).Msg("Failed to remove expired ticker cache file")
			continue
		}
		removed++
	}
	return removed, nil
}

// safeName maps a ticker to a file name without path separators
func safeName(ticker string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, strings.ToUpper(ticker))
}
