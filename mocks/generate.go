package mocks

//go:generate mockgen -destination=./mock_source.go -package=mocks github.com/neotheprogramist/ai-playground/pkg/marketdata/provider Source
//go:generate mockgen -destination=./mock_agent.go -package=mocks github.com/neotheprogramist/ai-playground/internal/agent Agent
