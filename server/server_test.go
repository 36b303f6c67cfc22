package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilati06/recall/internal/rcllog"
)

func postAnalyze(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func Test_Server_Analyze(t *testing.T) {
	assert := assert.New(t)

	srv := New(Config{})

	body, err := json.Marshal(AnalyzeRequest{Text: "P[pay](alice);"})
	require.NoError(t, err)

	rec := postAnalyze(t, srv, string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.False(resp.Conflict)
	assert.Equal(2, resp.States)
	assert.Equal(2, resp.Transitions)
	assert.NotEmpty(resp.Summary)
}

func Test_Server_AnalyzeConflict(t *testing.T) {
	assert := assert.New(t)

	srv := New(Config{})

	body, _ := json.Marshal(AnalyzeRequest{Text: "O[pay] & F[pay]; individuals: alice;"})
	rec := postAnalyze(t, srv, string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(resp.Conflict)
}

func Test_Server_AnalyzeModes(t *testing.T) {
	testCases := []struct {
		name            string
		mode            string
		expectResultCSV bool
	}{
		{name: "default mode", mode: "", expectResultCSV: false},
		{name: "normal mode", mode: "Normal", expectResultCSV: false},
		{name: "verbose mode", mode: "Verbose", expectResultCSV: false},
		{name: "test mode returns the metric payload", mode: "Test", expectResultCSV: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			srv := New(Config{})

			body, err := json.Marshal(AnalyzeRequest{Text: "P[pay](alice);", Mode: tc.mode})
			require.NoError(t, err)

			rec := postAnalyze(t, srv, string(body))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp AnalyzeResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

			if tc.expectResultCSV {
				assert.NotEmpty(resp.ResultCSV)
				assert.Contains(resp.ResultCSV, ";success")
			} else {
				assert.Empty(resp.ResultCSV)
			}
		})
	}
}

func Test_Server_VerboseModeRaisesLogLevel(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	srv := New(Config{
		Logger: rcllog.New(rcllog.Minimal, rcllog.WriterSink{W: &buf}),
	})

	body, _ := json.Marshal(AnalyzeRequest{Text: "P[pay](alice);"})
	rec := postAnalyze(t, srv, string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	quiet := buf.Len()

	body, _ = json.Marshal(AnalyzeRequest{Text: "P[pay](alice);", Mode: "Verbose"})
	rec = postAnalyze(t, srv, string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Greater(buf.Len(), quiet, "verbose requests log analysis steps")
}

func Test_Server_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		expectCode int
	}{
		{
			name:       "malformed json",
			body:       "{",
			expectCode: http.StatusBadRequest,
		},
		{
			name:       "empty text",
			body:       `{"text": ""}`,
			expectCode: http.StatusBadRequest,
		},
		{
			name:       "contract parse error",
			body:       `{"text": "O[pay"}`,
			expectCode: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown mode",
			body:       `{"text": "P[pay](alice);", "mode": "Chatty"}`,
			expectCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			srv := New(Config{})
			rec := postAnalyze(t, srv, tc.body)

			assert.Equal(tc.expectCode, rec.Code)

			var resp ErrorResponse
			assert.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(resp.Error)
		})
	}
}

func Test_Server_Health(t *testing.T) {
	assert := assert.New(t)

	srv := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(http.StatusOK, rec.Code)
	assert.Contains(rec.Body.String(), "ok")
}
