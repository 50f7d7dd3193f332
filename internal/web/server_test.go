package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradelens/alert-engine/internal/service/alert"
	"github.com/tradelens/alert-engine/internal/service/notification"
	"github.com/tradelens/alert-engine/internal/service/signal"
)

type stubEvaluator struct {
	res alert.EvaluateResult
	err error
}

func (s *stubEvaluator) Evaluate(ctx context.Context) (alert.EvaluateResult, error) {
	return s.res, s.err
}

type stubDispatcher struct {
	res notification.DispatchResult
	err error
}

func (s *stubDispatcher) Dispatch(ctx context.Context) (notification.DispatchResult, error) {
	return s.res, s.err
}

type stubPublisher struct {
	res signal.PublishResult
	err error
}

func (s *stubPublisher) Publish(ctx context.Context, req signal.PublishRequest) (signal.PublishResult, error) {
	return s.res, s.err
}

const testToken = "test-token"

func newTestServer(evaluator alert.Service, dispatcher notification.Service, publisher signal.Service) *httptest.Server {
	return httptest.NewServer(NewServer(evaluator, dispatcher, publisher, testToken).Handler())
}

func doPost(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestServer_RejectsMissingToken(t *testing.T) {
	srv := newTestServer(&stubEvaluator{}, &stubDispatcher{}, &stubPublisher{})
	defer srv.Close()

	resp := doPost(t, srv.URL+"/tasks/evaluate", "", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doPost(t, srv.URL+"/tasks/evaluate", "wrong-token", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_RejectsNonPost(t *testing.T) {
	srv := newTestServer(&stubEvaluator{}, &stubDispatcher{}, &stubPublisher{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/tasks/evaluate")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_Evaluate(t *testing.T) {
	srv := newTestServer(&stubEvaluator{res: alert.EvaluateResult{SymbolsProcessed: 3, AlertsFired: 2}},
		&stubDispatcher{}, &stubPublisher{})
	defer srv.Close()

	resp := doPost(t, srv.URL+"/tasks/evaluate", testToken, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res alert.EvaluateResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, 3, res.SymbolsProcessed)
	assert.Equal(t, 2, res.AlertsFired)
}

func TestServer_DispatchError(t *testing.T) {
	srv := newTestServer(&stubEvaluator{},
		&stubDispatcher{err: errors.New("store down")}, &stubPublisher{})
	defer srv.Close()

	resp := doPost(t, srv.URL+"/tasks/dispatch", testToken, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestServer_PublishErrorMapping(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "invalid payload", err: signal.ErrInvalidSignal, wantStatus: http.StatusBadRequest},
		{name: "not a member", err: signal.ErrNotGroupMember, wantStatus: http.StatusForbidden},
		{name: "internal", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(&stubEvaluator{}, &stubDispatcher{}, &stubPublisher{err: tc.err})
			defer srv.Close()

			resp := doPost(t, srv.URL+"/signals/publish", testToken, `{"provider_id":1}`)
			defer resp.Body.Close()
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}

func TestServer_PublishMalformedBody(t *testing.T) {
	srv := newTestServer(&stubEvaluator{}, &stubDispatcher{}, &stubPublisher{})
	defer srv.Close()

	resp := doPost(t, srv.URL+"/signals/publish", testToken, "{not json")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_PublishSuccess(t *testing.T) {
	srv := newTestServer(&stubEvaluator{}, &stubDispatcher{},
		&stubPublisher{res: signal.PublishResult{BroadcastId: "b-1", Recipients: 4}})
	defer srv.Close()

	resp := doPost(t, srv.URL+"/signals/publish", testToken,
		`{"provider_id":1,"group_id":10,"symbol":"BTCUSDT","timeframe":"4h"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res signal.PublishResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "b-1", res.BroadcastId)
	assert.Equal(t, 4, res.Recipients)
}
