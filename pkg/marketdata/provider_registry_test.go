package marketdata

import (
	"encoding/json"
	"testing"

	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ProviderRegistryTestSuite struct {
	suite.Suite
}

func TestProviderRegistrySuite(t *testing.T) {
	suite.Run(t, new(ProviderRegistryTestSuite))
}

func (suite *ProviderRegistryTestSuite) TestGetSupportedProviders() {
	suite.Equal([]string{"alphavantage", "binance", "polygon"}, GetSupportedProviders())
}

func (suite *ProviderRegistryTestSuite) TestGetProviderInfo() {
	info, err := GetProviderInfo("alphavantage")
	suite.Require().NoError(err)
	suite.True(info.RequiresAuth)
	suite.Equal("ALPHAVANTAGE_API_KEY", info.APIKeyEnv)

	info, err = GetProviderInfo("binance")
	suite.Require().NoError(err)
	suite.False(info.RequiresAuth)

	_, err = GetProviderInfo("yahoo")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))
}

func (suite *ProviderRegistryTestSuite) TestGetDownloadConfigSchema() {
	schemaJSON, err := GetDownloadConfigSchema()
	suite.Require().NoError(err)

	var schema map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &schema))

	properties, ok := schema["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "provider")
	suite.Contains(properties, "ticker")
	suite.Contains(properties, "startDate")
	suite.Contains(properties, "endDate")
	suite.Contains(properties, "apiKey")
}
