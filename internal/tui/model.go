// Package tui lets a human act as the decision agent of a trading environment.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/neotheprogramist/ai-playground/internal/agent"
	"github.com/neotheprogramist/ai-playground/internal/environment"
	"github.com/neotheprogramist/ai-playground/internal/recorder"
	"github.com/neotheprogramist/ai-playground/internal/stats"
	"github.com/neotheprogramist/ai-playground/internal/types"
)

// historySize is how many steps the history table keeps.
const historySize = 10

// Model is the Bubble Tea model of the play screen.
type Model struct {
	env       *environment.TradingEnvironment
	recorder  recorder.Recorder
	tracker   *stats.Tracker
	episodeID string

	keys    KeyMap
	help    help.Model
	history table.Model
	records []types.StepRecord

	lastReward float64
	prevClose  float64
	err        error
	quitting   bool
	width      int
}

// Option configures a Model.
type Option func(*Model)

// WithRecorder records every step the player takes.
func WithRecorder(r recorder.Recorder) Option {
	return func(m *Model) {
		m.recorder = r
	}
}

// WithTracker collects episode statistics.
func WithTracker(t *stats.Tracker) Option {
	return func(m *Model) {
		m.tracker = t
	}
}

// NewModel creates a Model over env and resets it.
func NewModel(env *environment.TradingEnvironment, opts ...Option) Model {
	m := Model{
		env:     env,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		history: NewHistoryTable(),
	}

	for _, opt := range opts {
		opt(&m)
	}

	m.startEpisode()

	return m
}

func (m *Model) startEpisode() {
	m.env.Reset()
	m.episodeID = uuid.New().String()
	m.records = nil
	m.lastReward = 0
	m.prevClose = 0
	m.err = nil
	m.history.SetRows(nil)

	if m.tracker != nil {
		m.tracker.Initialize(m.episodeID, m.env.Symbol(), "human", m.env.PortfolioValue())
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true

			return m, tea.Quit
		case key.Matches(msg, m.keys.Reset):
			m.startEpisode()

			return m, nil
		case key.Matches(msg, m.keys.Buy):
			return m.step(types.ActionBuy), nil
		case key.Matches(msg, m.keys.Hold):
			return m.step(types.ActionHold), nil
		case key.Matches(msg, m.keys.Sell):
			return m.step(types.ActionSell), nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.history.SetWidth(msg.Width)

		return m, nil
	}

	return m, nil
}

func (m Model) step(action types.Action) Model {
	if m.env.Done() {
		return m
	}

	prevClose := m.env.CurrentBar().Close

	result, err := m.env.Step(action)
	if err != nil {
		m.err = err

		return m
	}

	m.err = nil
	m.prevClose = prevClose
	m.lastReward = result.Reward

	record := agent.NewStepRecord(m.episodeID, m.env, action, result)

	if m.recorder != nil {
		if err := m.recorder.Record(record); err != nil {
			m.err = err
		}
	}

	if m.tracker != nil {
		m.tracker.RecordStep(record)
	}

	m.records = append(m.records, record)
	if len(m.records) > historySize {
		m.records = m.records[len(m.records)-historySize:]
	}

	m.history = UpdateHistoryRows(m.history, m.records)

	return m
}

// Done reports whether the current episode has finished.
func (m Model) Done() bool {
	return m.env.Done()
}

// Err returns the error of the last action, if any.
func (m Model) Err() error {
	return m.err
}
