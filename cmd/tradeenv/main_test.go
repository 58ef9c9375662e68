package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"

	"github.com/neotheprogramist/ai-playground/internal/config"
	"github.com/neotheprogramist/ai-playground/internal/logger"
	"github.com/neotheprogramist/ai-playground/internal/session"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"github.com/neotheprogramist/ai-playground/pkg/marketdata/writer"
)

type CommandTestSuite struct {
	suite.Suite
	dir string
}

func TestCommandSuite(t *testing.T) {
	suite.Run(t, new(CommandTestSuite))
}

func (suite *CommandTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

func (suite *CommandTestSuite) run(args ...string) (string, error) {
	var out bytes.Buffer

	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out

	err := app.Run(context.Background(), append([]string{"tradeenv", "--log-level", "error"}, args...))

	return out.String(), err
}

func (suite *CommandTestSuite) writeBars(symbol string, closes ...float64) string {
	path := filepath.Join(suite.dir, symbol+".parquet")
	w := writer.NewDuckDBWriter(path, nil)
	suite.Require().NoError(w.Initialize())

	defer w.Close()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		suite.Require().NoError(w.Write(types.PriceBar{
			Symbol: symbol,
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 100,
		}))
	}

	_, err := w.Finalize()
	suite.Require().NoError(err)

	return path
}

func (suite *CommandTestSuite) TestSchema() {
	out, err := suite.run("schema")
	suite.Require().NoError(err)
	suite.Contains(out, "initial_balance")

	out, err = suite.run("schema", "download")
	suite.Require().NoError(err)
	suite.Contains(out, "ticker")

	_, err = suite.run("schema", "strategy")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *CommandTestSuite) TestRunFromParquet() {
	data := suite.writeBars("IBM", 10, 11, 12, 13, 14)
	statsPath := filepath.Join(suite.dir, "stats.yaml")

	out, err := suite.run("run",
		"--ticker", "IBM",
		"--start", "2024-01-01",
		"--end", "2024-01-05",
		"--data", data,
		"--agent", "sequence",
		"--sequence", "buy",
		"--sequence", "hold",
		"--sequence", "sell",
		"--history", suite.dir,
		"--stats", statsPath,
	)
	suite.Require().NoError(err)

	var episode types.EpisodeStats
	suite.Require().NoError(yaml.Unmarshal([]byte(out), &episode))
	suite.Equal(4, episode.Steps)
	suite.Equal("IBM", episode.Symbol)
	suite.Equal(historyPath(suite.dir, "IBM_sequence"), episode.HistoryFilePath)

	suite.FileExists(statsPath)
	suite.FileExists(episode.HistoryFilePath)
}

func (suite *CommandTestSuite) TestRunRequiresTicker() {
	_, err := suite.run("run", "--start", "2024-01-01", "--data", suite.writeBars("IBM", 1, 2))
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (suite *CommandTestSuite) TestRunUnknownAgent() {
	_, err := suite.run("run", "--agent", "oracle")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *CommandTestSuite) TestNewStoreDefaultsToMemory() {
	store, err := newStore(context.Background(), config.Default(), logger.NewNop())
	suite.Require().NoError(err)

	defer store.Close()

	suite.IsType(&session.MemoryStore{}, store)
}

func (suite *CommandTestSuite) TestNewSourceFromParquet() {
	source, closeSource, err := newSource(config.Default(), suite.writeBars("SPY", 1, 2, 3), logger.NewNop())
	suite.Require().NoError(err)

	defer closeSource()

	suite.Equal("parquet", source.Name())

	bars, err := source.FetchBars(context.Background(), "SPY",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	suite.Require().NoError(err)
	suite.Len(bars, 3)
}
