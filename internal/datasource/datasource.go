// Package datasource replays price bars stored in parquet files.
package datasource

import (
	"iter"
	"time"

	"github.com/moznion/go-optional"

	"github.com/neotheprogramist/ai-playground/internal/types"
)

// DataSource reads price bars from a parquet file.
type DataSource interface {
	// Initialize points the data source at a parquet file.
	Initialize(path string) error
	// ReadAll yields the bars in ascending time order, optionally bounded by
	// inclusive start and end times.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.PriceBar, error]
	// LoadBars collects the bars of symbol in ascending time order. An empty
	// symbol matches every row.
	LoadBars(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.PriceBar, error)
	// Count returns the number of rows in the optional time range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Symbols returns the distinct symbols in the file.
	Symbols() ([]string, error)
	// Close closes the data source and releases any resources.
	Close() error
}
