package recorder

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"github.com/stretchr/testify/suite"
)

func stepRecord(episodeID string, step int, action types.Action) types.StepRecord {
	return types.StepRecord{
		EpisodeID:      episodeID,
		Symbol:         "IBM",
		Step:           step,
		Date:           time.Date(2024, 1, 1+step, 0, 0, 0, 0, time.UTC),
		Action:         action,
		Reward:         0.1,
		Observation:    types.Observation{10, 11, 9, 10.5, 1000},
		Balance:        1000,
		TokenAmount:    0,
		PortfolioValue: 1000,
		TotalReward:    0.1 * float64(step),
		Done:           false,
	}
}

type MemoryRecorderTestSuite struct {
	suite.Suite
}

func TestMemoryRecorderSuite(t *testing.T) {
	suite.Run(t, new(MemoryRecorderTestSuite))
}

func (suite *MemoryRecorderTestSuite) TestRecordsInOrder() {
	r := NewMemoryRecorder()
	suite.Require().NoError(r.Record(stepRecord("a", 1, types.ActionBuy)))
	suite.Require().NoError(r.Record(stepRecord("b", 1, types.ActionHold)))
	suite.Require().NoError(r.Record(stepRecord("a", 2, types.ActionSell)))

	records := r.Records()
	suite.Len(records, 3)
	suite.Equal(types.ActionSell, records[2].Action)

	episode := r.EpisodeRecords("a")
	suite.Len(episode, 2)
	suite.Equal(2, episode[1].Step)

	records[0].Step = 99
	suite.Equal(1, r.Records()[0].Step)
	suite.NoError(r.Close())
}

func (suite *MemoryRecorderTestSuite) TestMulti() {
	first := NewMemoryRecorder()
	second := NewMemoryRecorder()
	multi := Multi(first, second)

	suite.Require().NoError(multi.Record(stepRecord("a", 1, types.ActionBuy)))
	suite.Len(first.Records(), 1)
	suite.Len(second.Records(), 1)
	suite.NoError(multi.Close())
}

type ParquetRecorderTestSuite struct {
	suite.Suite
	outputPath string
}

func TestParquetRecorderSuite(t *testing.T) {
	suite.Run(t, new(ParquetRecorderTestSuite))
}

func (suite *ParquetRecorderTestSuite) SetupTest() {
	suite.outputPath = filepath.Join(suite.T().TempDir(), "history", "steps.parquet")
}

func (suite *ParquetRecorderTestSuite) TestRecordWithoutInitialize() {
	r := NewParquetRecorder(suite.outputPath, nil)

	err := r.Record(stepRecord("a", 1, types.ActionBuy))
	suite.True(errors.HasCode(err, errors.ErrCodeWriteFailed))
	suite.NoError(r.Close())
}

func (suite *ParquetRecorderTestSuite) TestRecordAndExport() {
	r := NewParquetRecorder(suite.outputPath, nil)
	suite.Require().NoError(r.Initialize())

	suite.Require().NoError(r.Record(stepRecord("a", 2, types.ActionSell)))
	suite.Require().NoError(r.Record(stepRecord("a", 1, types.ActionBuy)))

	count, err := r.Count()
	suite.Require().NoError(err)
	suite.Equal(2, count)

	suite.Require().NoError(r.Close())
	suite.FileExists(suite.outputPath)

	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)

	defer db.Close()

	rows, err := db.Query(fmt.Sprintf("SELECT step, action, close FROM read_parquet('%s')", suite.outputPath))
	suite.Require().NoError(err)

	defer rows.Close()

	var (
		steps   []int
		actions []string
	)

	for rows.Next() {
		var (
			step       int
			action     string
			closePrice float64
		)

		suite.Require().NoError(rows.Scan(&step, &action, &closePrice))
		suite.Equal(10.5, closePrice)

		steps = append(steps, step)
		actions = append(actions, action)
	}

	suite.Require().NoError(rows.Err())
	suite.Equal([]int{1, 2}, steps)
	suite.Equal([]string{"buy", "sell"}, actions)
}
