package datasource

import (
	"context"
	"sync"
	"time"

	"github.com/moznion/go-optional"

	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"github.com/neotheprogramist/ai-playground/pkg/marketdata/provider"
)

// ParquetSource serves price bars from a downloaded parquet file through the
// provider.Source interface.
type ParquetSource struct {
	dataSource DataSource
	mu         sync.Mutex
}

var _ provider.Source = (*ParquetSource)(nil)

// NewParquetSource opens path in an in-memory DuckDB database.
func NewParquetSource(path string, log *logger.Logger) (*ParquetSource, error) {
	dataSource, err := NewDataSource(":memory:", log)
	if err != nil {
		return nil, err
	}

	if err := dataSource.Initialize(path); err != nil {
		dataSource.Close()

		return nil, err
	}

	return &ParquetSource{dataSource: dataSource, mu: sync.Mutex{}}, nil
}

func (s *ParquetSource) Name() string { return "parquet" }

// FetchBars implements provider.Source.
func (s *ParquetSource) FetchBars(ctx context.Context, symbol string, start time.Time, end time.Time) ([]types.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Pre-filter on time, then apply the calendar-date rules of every source.
	from := start.AddDate(0, 0, -1)
	to := end.AddDate(0, 0, 2)

	bars, err := s.dataSource.LoadBars(symbol, optional.Some(from), optional.Some(to))
	if err != nil {
		return nil, err
	}

	bars = provider.FilterAndSort(bars, start, end)
	if len(bars) == 0 {
		return nil, errors.NewNoDataError(s.Name(), symbol)
	}

	return bars, nil
}

// Close releases the underlying database.
func (s *ParquetSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dataSource.Close()
}
