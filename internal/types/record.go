package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// StepRecord is one recorded decision of an episode.
type StepRecord struct {
	EpisodeID      string      `json:"episode_id" yaml:"episode_id"`
	Symbol         string      `json:"symbol" yaml:"symbol"`
	Step           int         `json:"step" yaml:"step"`
	Date           time.Time   `json:"date" yaml:"date"`
	Action         Action      `json:"action" yaml:"action"`
	Reward         float64     `json:"reward" yaml:"reward"`
	Observation    Observation `json:"observation" yaml:"observation"`
	Balance        float64     `json:"balance" yaml:"balance"`
	TokenAmount    float64     `json:"token_amount" yaml:"token_amount"`
	PortfolioValue float64     `json:"portfolio_value" yaml:"portfolio_value"`
	TotalReward    float64     `json:"total_reward" yaml:"total_reward"`
	Done           bool        `json:"done" yaml:"done"`
}

// EpisodeStats summarizes a finished (or interrupted) episode.
type EpisodeStats struct {
	// ID is the episode identifier shared with its step records.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when the episode finished.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Symbol of the traded asset.
	Symbol string `yaml:"symbol" json:"symbol"`
	// Agent is the name of the decision agent.
	Agent string `yaml:"agent" json:"agent"`
	// Steps taken in the episode.
	Steps int `yaml:"steps" json:"steps"`
	// Buys, Holds and Sells count the submitted actions.
	Buys  int `yaml:"buys" json:"buys"`
	Holds int `yaml:"holds" json:"holds"`
	Sells int `yaml:"sells" json:"sells"`
	// Penalties counts steps with a negative reward.
	Penalties int `yaml:"penalties" json:"penalties"`
	// TotalReward is the cumulative reward.
	TotalReward float64 `yaml:"total_reward" json:"total_reward"`
	// StartValue and EndValue are the portfolio values before the first and after the last step.
	StartValue float64 `yaml:"start_value" json:"start_value"`
	EndValue   float64 `yaml:"end_value" json:"end_value"`
	// PeakValue is the highest portfolio value observed.
	PeakValue float64 `yaml:"peak_value" json:"peak_value"`
	// ReturnPct is (EndValue-StartValue)/StartValue*100, zero when StartValue is zero.
	ReturnPct float64 `yaml:"return_pct" json:"return_pct"`
	// MaxDrawdown is the largest peak-to-trough drop of the portfolio value.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	// HistoryFilePath is the parquet file holding the step records, if any.
	HistoryFilePath string `yaml:"history_file_path,omitempty" json:"history_file_path,omitempty"`
}

// WriteEpisodeStats writes stats to path as YAML.
func WriteEpisodeStats(path string, stats []EpisodeStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal episode stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write episode stats to file: %w", err)
	}

	return nil
}
