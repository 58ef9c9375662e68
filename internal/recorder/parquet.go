package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"go.uber.org/zap"
)

// ParquetRecorder collects step records in an in-memory DuckDB table and
// exports them to a parquet file on Flush and Close.
type ParquetRecorder struct {
	db         *sql.DB
	outputPath string
	logger     *logger.Logger
	mu         sync.Mutex
}

// NewParquetRecorder creates a recorder exporting to outputPath.
// Call Initialize before recording.
func NewParquetRecorder(outputPath string, log *logger.Logger) *ParquetRecorder {
	if log == nil {
		log = logger.NewNop()
	}

	return &ParquetRecorder{
		db:         nil,
		outputPath: outputPath,
		logger:     log,
		mu:         sync.Mutex{},
	}
}

// Initialize creates the output directory and the steps table.
func (r *ParquetRecorder) Initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.outputPath), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create output directory", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to open DuckDB connection", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS steps (
			id TEXT PRIMARY KEY,
			episode_id TEXT,
			symbol TEXT,
			step INTEGER,
			date TIMESTAMP,
			action TEXT,
			reward DOUBLE,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			balance DOUBLE,
			token_amount DOUBLE,
			portfolio_value DOUBLE,
			total_reward DOUBLE,
			done BOOLEAN
		)
	`)
	if err != nil {
		db.Close()

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create steps table", err)
	}

	r.db = db

	return nil
}

// Record inserts one step record.
func (r *ParquetRecorder) Record(record types.StepRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return errors.New(errors.ErrCodeWriteFailed, "recorder not initialized")
	}

	query, args, err := sq.Insert("steps").
		Columns("id", "episode_id", "symbol", "step", "date", "action", "reward",
			"open", "high", "low", "close", "volume",
			"balance", "token_amount", "portfolio_value", "total_reward", "done").
		Values(uuid.New().String(), record.EpisodeID, record.Symbol, record.Step, record.Date,
			record.Action.String(), record.Reward,
			record.Observation.Open(), record.Observation.High(), record.Observation.Low(),
			record.Observation.Close(), record.Observation.Volume(),
			record.Balance, record.TokenAmount, record.PortfolioValue, record.TotalReward, record.Done).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to build insert query", err)
	}

	if _, err := r.db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to insert step record", err)
	}

	return nil
}

// Count returns the number of records stored.
func (r *ParquetRecorder) Count() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return 0, errors.New(errors.ErrCodeWriteFailed, "recorder not initialized")
	}

	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM steps").Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count step records", err)
	}

	return count, nil
}

// Flush exports the current records to the parquet file.
func (r *ParquetRecorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return errors.New(errors.ErrCodeWriteFailed, "recorder not initialized")
	}

	return r.exportToParquet()
}

// GetOutputPath returns the parquet file path.
func (r *ParquetRecorder) GetOutputPath() string {
	return r.outputPath
}

// Close exports the records and releases the database.
func (r *ParquetRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return nil
	}

	exportErr := r.exportToParquet()

	if err := r.db.Close(); err != nil && exportErr == nil {
		exportErr = errors.Wrap(errors.ErrCodeWriteFailed, "failed to close database", err)
	}

	r.db = nil

	return exportErr
}

func (r *ParquetRecorder) exportToParquet() error {
	_, err := r.db.Exec(fmt.Sprintf(`
		COPY (SELECT * FROM steps ORDER BY episode_id, step)
		TO '%s' (FORMAT PARQUET)
	`, strings.ReplaceAll(r.outputPath, "'", "''")))
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to export to parquet", err)
	}

	r.logger.Debug("Exported step records", zap.String("path", r.outputPath))

	return nil
}
