package marketdata

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"github.com/neotheprogramist/ai-playground/pkg/marketdata/provider"
)

// DownloadConfig is the JSON form of a download request, as accepted by the CLI.
type DownloadConfig struct {
	Provider  string `json:"provider" jsonschema:"title=Provider,description=Market data provider,enum=alphavantage,enum=polygon,enum=binance,default=alphavantage" validate:"required,oneof=alphavantage polygon binance"`
	Ticker    string `json:"ticker" jsonschema:"title=Ticker,description=The trading symbol to download data for (e.g. IBM or BTCUSDT),required" validate:"required"`
	StartDate string `json:"startDate" jsonschema:"title=Start Date,description=Inclusive start date (YYYY-MM-DD),format=date,required" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" jsonschema:"title=End Date,description=Inclusive end date (YYYY-MM-DD),format=date,required" validate:"required,datetime=2006-01-02"`
	APIKey    string `json:"apiKey,omitempty" jsonschema:"title=API Key,description=Provider API key. Required by alphavantage and polygon" validate:"required_unless=Provider binance"`
}

// Validate validates the DownloadConfig fields.
func (c *DownloadConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, fieldErr := range validationErrors {
				if fieldErr.Field() == "APIKey" {
					return errors.NewCredentialRequiredError(c.Provider)
				}
			}
		}

		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download config", err)
	}

	return nil
}

// ToDownloadParams converts the config to DownloadParams.
func (c *DownloadConfig) ToDownloadParams() (DownloadParams, error) {
	startDate, err := time.Parse(types.DateLayout, c.StartDate)
	if err != nil {
		return DownloadParams{}, errors.Wrap(errors.ErrCodeInvalidDate, "failed to parse startDate", err)
	}

	endDate, err := time.Parse(types.DateLayout, c.EndDate)
	if err != nil {
		return DownloadParams{}, errors.Wrap(errors.ErrCodeInvalidDate, "failed to parse endDate", err)
	}

	return DownloadParams{
		Ticker:    c.Ticker,
		StartDate: startDate,
		EndDate:   endDate,
	}, nil
}

// ToClientConfig converts the config to a ClientConfig writing under dataPath.
func (c *DownloadConfig) ToClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType: provider.ProviderType(c.Provider),
		WriterType:   WriterDuckDB,
		DataPath:     dataPath,
		APIKey:       c.APIKey,
	}
}

// ParseDownloadConfig parses and validates a JSON download config.
func ParseDownloadConfig(jsonConfig string) (*DownloadConfig, error) {
	var config DownloadConfig
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to parse JSON config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
