package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/neotheprogramist/ai-playground/internal/environment"
	"github.com/neotheprogramist/ai-playground/internal/session"
	"github.com/neotheprogramist/ai-playground/internal/types"
	"github.com/neotheprogramist/ai-playground/mocks"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ServerTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	source  *mocks.MockSource
	manager *session.Manager
	server  *httptest.Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.source = mocks.NewMockSource(suite.ctrl)

	config := environment.DefaultConfig("2024-01-01")
	config.InitialBalance = 1000

	suite.manager = session.NewManager(session.NewMemoryStore(time.Hour), suite.source, config,
		session.WithClock(func() time.Time { return time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC) }),
	)
	suite.server = httptest.NewServer(New(suite.manager, nil).Handler())
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *ServerTestSuite) do(method, path, token string, body any) *http.Response {
	var payload bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&payload).Encode(body))
	}

	req, err := http.NewRequest(method, suite.server.URL+path, &payload)
	suite.Require().NoError(err)

	if token != "" {
		req.Header.Set(TokenHeader, token)
	}

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)

	suite.T().Cleanup(func() { resp.Body.Close() })

	return resp
}

func (suite *ServerTestSuite) decode(resp *http.Response, target any) {
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(target))
}

func (suite *ServerTestSuite) createSession(closes ...float64) session.CreateResult {
	suite.source.EXPECT().
		FetchBars(gomock.Any(), "IBM", gomock.Any(), gomock.Any()).
		Return(mocks.BarsFromCloses("IBM", closes...), nil)

	resp := suite.do(http.MethodPost, "/sessions", "", CreateRequest{Symbol: "IBM", Start: "2024-01-01", End: "2024-01-31"})
	suite.Require().Equal(http.StatusCreated, resp.StatusCode)

	var result session.CreateResult
	suite.decode(resp, &result)

	return result
}

func (suite *ServerTestSuite) TestHealth() {
	resp := suite.do(http.MethodGet, "/healthz", "", nil)
	suite.Equal(http.StatusOK, resp.StatusCode)
}

func (suite *ServerTestSuite) TestSessionLifecycle() {
	created := suite.createSession(10, 12, 11)
	suite.NotEmpty(created.Token)
	suite.Equal(10.0, created.Observation.Close())

	action := int(types.ActionBuy)
	resp := suite.do(http.MethodPost, "/sessions/step", created.Token, StepRequest{Action: &action})
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var step types.StepResult
	suite.decode(resp, &step)
	suite.InDelta(0.01, step.Reward, 1e-12)
	suite.False(step.Done)
	suite.Equal(12.0, step.Observation.Close())
	suite.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), step.Info.PredictionDate)

	resp = suite.do(http.MethodGet, "/sessions", created.Token, nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var state session.State
	suite.decode(resp, &state)
	suite.Equal(1, state.Step)
	suite.InDelta(900.0, state.Balance, 1e-9)

	action = int(types.ActionSell)
	resp = suite.do(http.MethodPost, "/sessions/step", created.Token, StepRequest{Action: &action})
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	suite.decode(resp, &step)
	suite.True(step.Done)

	// The finished session is gone.
	resp = suite.do(http.MethodPost, "/sessions/step", created.Token, StepRequest{Action: &action})
	suite.Equal(http.StatusNotFound, resp.StatusCode)
}

func (suite *ServerTestSuite) TestResetAndDelete() {
	created := suite.createSession(10, 12, 11)

	action := int(types.ActionHold)
	resp := suite.do(http.MethodPost, "/sessions/step", created.Token, StepRequest{Action: &action})
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	resp = suite.do(http.MethodPost, "/sessions/reset", created.Token, nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var reset ResetResponse
	suite.decode(resp, &reset)
	suite.Equal(created.Observation, reset.Observation)

	resp = suite.do(http.MethodDelete, "/sessions", created.Token, nil)
	suite.Equal(http.StatusNoContent, resp.StatusCode)

	resp = suite.do(http.MethodGet, "/sessions", created.Token, nil)
	suite.Equal(http.StatusNotFound, resp.StatusCode)
}

func (suite *ServerTestSuite) TestStepValidation() {
	created := suite.createSession(10, 12, 11)

	tests := []struct {
		name   string
		token  string
		body   any
		status int
	}{
		{name: "missing token", token: "", body: map[string]int{"action": 1}, status: http.StatusBadRequest},
		{name: "missing action", token: created.Token, body: map[string]string{}, status: http.StatusBadRequest},
		{name: "action out of range", token: created.Token, body: map[string]int{"action": 3}, status: http.StatusBadRequest},
		{name: "unknown token", token: "nope", body: map[string]int{"action": 1}, status: http.StatusNotFound},
	}

	for _, tc := range tests {
		resp := suite.do(http.MethodPost, "/sessions/step", tc.token, tc.body)
		suite.Equal(tc.status, resp.StatusCode, tc.name)

		var body ErrorResponse
		suite.decode(resp, &body)
		suite.NotEmpty(body.Message, tc.name)
	}

	resp := suite.do(http.MethodGet, "/sessions", created.Token, nil)

	var state session.State
	suite.decode(resp, &state)
	suite.Equal(0, state.Step)
}

func (suite *ServerTestSuite) TestCreateErrors() {
	resp := suite.do(http.MethodPost, "/sessions", "", CreateRequest{Symbol: "IBM", Start: "01/01/2024", End: "2024-01-31"})
	suite.Equal(http.StatusBadRequest, resp.StatusCode)

	suite.source.EXPECT().
		FetchBars(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.NewUpstreamError("alphavantage", "Invalid API call"))

	resp = suite.do(http.MethodPost, "/sessions", "", CreateRequest{Symbol: "IBM", Start: "2024-01-01", End: "2024-01-31"})
	suite.Equal(http.StatusBadGateway, resp.StatusCode)

	suite.source.EXPECT().
		FetchBars(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(mocks.BarsFromCloses("IBM", 10), nil)

	resp = suite.do(http.MethodPost, "/sessions", "", CreateRequest{Symbol: "IBM", Start: "2024-01-01", End: "2024-01-31"})
	suite.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
}

func (suite *ServerTestSuite) TestCreateWithInitialBalance() {
	suite.source.EXPECT().
		FetchBars(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(mocks.BarsFromCloses("IBM", 10, 11), nil)

	balance := 50.0
	resp := suite.do(http.MethodPost, "/sessions", "", CreateRequest{Symbol: "IBM", Start: "2024-01-01", End: "2024-01-02", InitialBalance: &balance})
	suite.Require().Equal(http.StatusCreated, resp.StatusCode)

	var created session.CreateResult
	suite.decode(resp, &created)

	resp = suite.do(http.MethodGet, "/sessions", created.Token, nil)

	var state session.State
	suite.decode(resp, &state)
	suite.Equal(50.0, state.Balance)
}

func (suite *ServerTestSuite) TestStatusCode() {
	tests := []struct {
		err    error
		status int
	}{
		{errors.NewInvalidActionError(9), http.StatusBadRequest},
		{errors.New(errors.ErrCodeSessionNotFound, "x"), http.StatusNotFound},
		{errors.NewInvalidPriceError(1, 0), http.StatusUnprocessableEntity},
		{errors.NewEpisodeFinishedError(2), http.StatusUnprocessableEntity},
		{errors.NewNoDataError("p", "s"), http.StatusUnprocessableEntity},
		{errors.NewFetchError("p", fmt.Errorf("boom")), http.StatusBadGateway},
		{errors.NewCredentialRequiredError("p"), http.StatusBadGateway},
		{errors.New(errors.ErrCodeSessionStore, "x"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		suite.Equal(tc.status, StatusCode(tc.err), tc.err.Error())
	}
}

func (suite *ServerTestSuite) TestStartStop() {
	srv := New(suite.manager, nil)
	suite.Require().NoError(srv.Start("127.0.0.1:0"))
	suite.NotEmpty(srv.Address())

	resp, err := http.Get("http://" + srv.Address() + "/healthz")
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	suite.NoError(srv.Stop(ctx))
}
