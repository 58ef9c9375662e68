package tui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/neotheprogramist/ai-playground/internal/environment"
	"github.com/neotheprogramist/ai-playground/internal/recorder"
	"github.com/neotheprogramist/ai-playground/internal/stats"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(t *testing.T, closes ...float64) *environment.TradingEnvironment {
	t.Helper()

	config := environment.DefaultConfig("2024-01-01")
	config.InitialBalance = 1000

	env, err := environment.New(mocks.BarsFromCloses("IBM", closes...), config, nil)
	require.NoError(t, err)

	return env
}

func press(m tea.Model, keys string) tea.Model {
	for _, r := range keys {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	return m
}

func TestKeysStepEnvironment(t *testing.T) {
	env := newEnv(t, 10, 12, 11, 13)
	memory := recorder.NewMemoryRecorder()
	tracker := stats.NewTracker(nil)

	m := press(NewModel(env, WithRecorder(memory), WithTracker(tracker)), "bhs")
	model := m.(Model)

	assert.Equal(t, 3, env.CurrentStep())
	assert.InDelta(t, 0.22, env.TotalReward(), 1e-9)
	assert.InDelta(t, 0.11, model.lastReward, 1e-9)
	assert.True(t, model.Done())
	assert.NoError(t, model.Err())

	records := memory.Records()
	require.Len(t, records, 3)
	assert.Equal(t, []types.Action{types.ActionBuy, types.ActionHold, types.ActionSell},
		[]types.Action{records[0].Action, records[1].Action, records[2].Action})

	episode := tracker.Stats()
	assert.Equal(t, "human", episode.Agent)
	assert.Equal(t, 3, episode.Steps)
}

func TestKeysIgnoredAfterDone(t *testing.T) {
	env := newEnv(t, 10, 11)

	m := press(NewModel(env), "hh").(Model)

	assert.True(t, m.Done())
	assert.Equal(t, 1, env.CurrentStep())
	assert.Len(t, m.records, 1)
	assert.Contains(t, m.View(), "Episode finished")
}

func TestResetKey(t *testing.T) {
	env := newEnv(t, 10, 12, 11)

	m := press(NewModel(env), "b").(Model)
	firstEpisode := m.episodeID

	m = press(m, "r").(Model)

	assert.Equal(t, 0, env.CurrentStep())
	assert.Equal(t, 0.0, env.TotalReward())
	assert.Empty(t, m.records)
	assert.NotEqual(t, firstEpisode, m.episodeID)
	// Capital carries over by default.
	assert.InDelta(t, 10.0, env.TokenAmount(), 1e-9)
}

func TestInvalidPriceShowsError(t *testing.T) {
	env := newEnv(t, 10, 0, 12)

	m := press(NewModel(env), "hb").(Model)

	require.Error(t, m.Err())
	assert.Equal(t, 1, env.CurrentStep())
	assert.Contains(t, m.View(), "Error:")
}

func TestHistoryKeepsRecentSteps(t *testing.T) {
	closes := make([]float64, historySize+5)
	for i := range closes {
		closes[i] = 10
	}

	m := NewModel(newEnv(t, closes...))

	for i := 0; i < historySize+3; i++ {
		m = press(m, "h").(Model)
	}

	require.Len(t, m.records, historySize)
	assert.Equal(t, historySize+3, m.records[historySize-1].Step)
	assert.Equal(t, "13", m.history.Rows()[0][0])
}

func TestFormatReward(t *testing.T) {
	assert.Contains(t, FormatReward(0.1), "+0.1000")
	assert.Contains(t, FormatReward(-0.5), "-0.5000")
	assert.Equal(t, "+0.0000", FormatReward(0))
}

func TestFormatPriceChange(t *testing.T) {
	assert.Equal(t, "10.0000", FormatPriceChange(10, 0))
	assert.Equal(t, "11.0000 ▲", FormatPriceChange(11, 10))
	assert.Equal(t, "9.0000 ▼", FormatPriceChange(9, 10))
	assert.Equal(t, "10.0000", FormatPriceChange(10, 10))
}

func TestPlayScreen(t *testing.T) {
	env := newEnv(t, 10, 12, 11)
	tm := teatest.NewTestModel(t, NewModel(env), teatest.WithInitialTermSize(100, 40))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("IBM")) && bytes.Contains(bts, []byte("step 0/2"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("step 1/2"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Episode finished"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final, ok := tm.FinalModel(t).(Model)
	require.True(t, ok)
	assert.True(t, final.Done())
	assert.True(t, final.quitting)
}
