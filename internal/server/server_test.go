package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/concierge/internal/api/handlers"
	"github.com/Veraticus/concierge/internal/compliance"
	"github.com/Veraticus/concierge/internal/discovery"
	"github.com/Veraticus/concierge/internal/llm"
	"github.com/Veraticus/concierge/internal/model"
	"github.com/Veraticus/concierge/internal/testutil"
)

func newTestServer(t *testing.T, fake *testutil.FakeLLM) (*httptest.Server, *testutil.TestDB) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	db := testutil.SetupTestDB(t, testutil.PartnerInHighRiskCountry, testutil.CleanClient)

	var client llm.Client
	if fake != nil {
		client = fake
	}

	svc := discovery.NewService(discovery.Deps{
		LLM:    client,
		Search: &testutil.FakeSearcher{},
		Store:  db.Storage,
		Logger: logger,
	}, discovery.Config{})
	t.Cleanup(svc.Wait)

	router := NewRouter(Handlers{
		Discovery:  handlers.NewDiscoveryHandler(svc, logger),
		Compliance: handlers.NewComplianceHandler(compliance.NewChecker(db.Storage, client, logger), logger),
		Health:     handlers.NewHealthHandler(db.Storage),
	}, logger)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, db
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestRouter_Compliance(t *testing.T) {
	fake := &testutil.FakeLLM{TextResponder: func(llm.Request) (string, error) {
		return "", &llm.APIError{Provider: "openai", Status: 503}
	}}
	ts, db := newTestServer(t, fake)

	resp, body := postJSON(t, ts.URL+"/v1/kyc-aml-checker", `{"entity_type":"partner","entity_id":"partner-high-risk","verification_level":"enhanced"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(30), body["risk_score"])
	assert.Equal(t, "approved", body["status"])
	assert.Equal(t, "medium", body["risk_level"])
	assert.Equal(t, "proceed", body["recommendation"])
	assert.Equal(t, float64(1), body["alerts"])
	assert.Equal(t, 1, db.CountRows("aml_alerts"))

	resp, body = postJSON(t, ts.URL+"/v1/kyc-aml-checker", `{"entity_type":"client","entity_id":"nobody"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	resp, _ = postJSON(t, ts.URL+"/v1/kyc-aml-checker", `{"entity_id":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_Discovery(t *testing.T) {
	t.Run("no model configured", func(t *testing.T) {
		ts, _ := newTestServer(t, nil)
		resp, body := postJSON(t, ts.URL+"/v1/ai-partner-discovery", `{"requirements":"yacht in Monaco"}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "AI service not configured", body["error"])
	})

	t.Run("missing requirements", func(t *testing.T) {
		ts, _ := newTestServer(t, nil)
		resp, body := postJSON(t, ts.URL+"/v1/ai-partner-discovery", `{"regions":["Monaco"]}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, false, body["success"])
	})

	t.Run("rate limited", func(t *testing.T) {
		fake := &testutil.FakeLLM{ToolResponder: func(llm.Request) (json.RawMessage, error) {
			return nil, &llm.APIError{Provider: "openai", Status: 429}
		}}
		ts, _ := newTestServer(t, fake)
		resp, _ := postJSON(t, ts.URL+"/v1/ai-partner-discovery", `{"requirements":"yacht"}`)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	})

	t.Run("success", func(t *testing.T) {
		fake := &testutil.FakeLLM{ToolResponder: func(llm.Request) (json.RawMessage, error) {
			return testutil.SuggestionArgs(map[string]any{
				"company_name": "Riviera Yachting",
				"category":     string(model.CategoryYacht),
				"description":  "Charter",
				"website":      "rivierayachting.com",
				"priority":     "medium",
				"match_reason": "Monaco fleet",
			}), nil
		}}
		ts, _ := newTestServer(t, fake)
		resp, body := postJSON(t, ts.URL+"/v1/ai-partner-discovery", `{"requirements":"yacht","category":"yacht","regions":["Monaco"]}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])
		require.Len(t, body["suggestions"], 1)
		assert.Contains(t, body, "searchQueries")
		assert.Contains(t, body, "processingTime")
	})
}

func TestRouter_PreflightAndHealth(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/v1/ai-partner-discovery", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
