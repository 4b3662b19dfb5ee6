package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickviewer/internal/config"
	"tickviewer/internal/shared/testutil"
	api "tickviewer/pkg/contracts/api/v1"
	"tickviewer/pkg/contracts/events"
)

type testEnv struct {
	app    *Application
	server *httptest.Server
	input  string
	output string
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Server.StaticDir = filepath.Join(root, "static")
	cfg.Converter.InputDir = filepath.Join(root, "in")
	cfg.Converter.OutputDir = filepath.Join(root, "out")
	cfg.Converter.Workers = 2
	cfg.Converter.WriteSummary = true
	cfg.Logging.FilePath = ""
	cfg.Telemetry.EnableTracing = false

	require.NoError(t, os.MkdirAll(cfg.Server.StaticDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Server.StaticDir, "index.html"), []byte("<html>tick viewer</html>"), 0644))
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testConfig(t)
	logger, _ := testutil.NewTestLogger(t)

	app, err := NewApplication(cfg, logger)
	require.NoError(t, err)
	app.WebSocketHub.Start()

	server := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Tracker.Shutdown(ctx)
		app.WebSocketHub.Stop()
	})

	return &testEnv{
		app:    app,
		server: server,
		input:  app.Paths.InputDir,
		output: app.Paths.OutputDir,
	}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (e *testEnv) convert(t *testing.T, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(e.server.URL+"/api/operations/convert", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func (e *testEnv) waitIdle(t *testing.T) api.OperationStatusResponse {
	t.Helper()
	var status api.OperationStatusResponse
	require.Eventually(t, func() bool {
		_, body := e.get(t, "/api/operations/status")
		status = api.OperationStatusResponse{}
		if err := json.Unmarshal([]byte(body), &status); err != nil {
			return false
		}
		return !status.Running && status.Operation != nil
	}, 10*time.Second, 20*time.Millisecond)
	return status
}

func TestApplication_ConvertAndServe(t *testing.T) {
	env := newTestEnv(t)
	past := time.Now().Add(-time.Hour)
	for _, path := range []string{
		testutil.WriteSampleDay(t, env.input, "20240102", "ACME"),
		testutil.WriteSampleDay(t, env.input, "20240103", "BBOB"),
	} {
		require.NoError(t, os.Chtimes(path, past, past))
	}

	resp, body := env.get(t, "/api/dates")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, body)

	resp = env.convert(t, `{}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	status := env.waitIdle(t)
	assert.Equal(t, "completed", string(status.Operation.Status))
	require.NotNil(t, status.Operation.Result)
	assert.Equal(t, 2, status.Operation.Result.Converted)

	t.Run("dates", func(t *testing.T) {
		resp, body := env.get(t, "/api/dates")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `["20240103","20240102"]`, body)
	})

	t.Run("stocks", func(t *testing.T) {
		resp, body := env.get(t, "/api/stocks/20240102")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `["ACME"]`, body)

		resp, body = env.get(t, "/api/stocks/20991231")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Date not found"}`, body)

		resp, _ = env.get(t, "/api/stocks/2024")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("document", func(t *testing.T) {
		resp, body := env.get(t, "/api/data/20240102/ACME")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "public, max-age=3600", resp.Header.Get("Cache-Control"))

		stored, err := os.ReadFile(config.DocumentPath(env.output, "20240102", "ACME"))
		require.NoError(t, err)
		assert.Equal(t, string(stored), body)

		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(body), &doc))
		assert.Equal(t, "ACME", doc["stock_code"])
		assert.Equal(t, "20240102", doc["date"])

		resp, body = env.get(t, "/api/data/20240102/NOPE")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Stock data not found"}`, body)
	})

	t.Run("summary", func(t *testing.T) {
		resp, body := env.get(t, "/api/summary/20240102")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `"stock_code":"ACME"`)

		resp, body = env.get(t, "/api/summary/20240102?format=csv")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "ACME,20240102,11,10,11,10,10.5,10,2,1,10.00")

		assert.FileExists(t, config.SummaryPath(env.output, "20240102", "csv"))
		assert.FileExists(t, config.SummaryPath(env.output, "20240102", "xlsx"))
	})

	t.Run("metrics", func(t *testing.T) {
		resp, body := env.get(t, "/metrics")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "converter_files_total")
		assert.Contains(t, body, "http_requests_total")
	})

	t.Run("second run skips up-to-date outputs", func(t *testing.T) {
		resp := env.convert(t, `{"date":"20240102"}`)
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		status := env.waitIdle(t)
		require.NotNil(t, status.Operation.Result)
		assert.Equal(t, 0, status.Operation.Result.Converted)
		assert.Equal(t, 1, status.Operation.Result.Skipped)
		assert.Equal(t, []string{"20240102"}, status.Operation.Result.Dates)
	})
}

func TestApplication_InvalidConvertRequest(t *testing.T) {
	env := newTestEnv(t)

	resp := env.convert(t, `{"date":"2024"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body := env.get(t, "/api/operations/status")
	assert.JSONEq(t, `{"running":false}`, body)
}

func TestApplication_HealthAndVersion(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "ok", health["status"])

	resp, body = env.get(t, "/api/version")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"api_version":"v1"`)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/version", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")
	gz, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	gz.Body.Close()
	assert.Equal(t, "gzip", gz.Header.Get("Content-Encoding"))
}

func TestApplication_StaticAndNotFound(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "tick viewer")

	resp, _ = env.get(t, "/missing.js")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.get(t, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestApplication_CORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodOptions, env.server.URL+"/api/dates", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://viewer.example")
	req.Header.Set("Access-Control-Request-Method", "GET")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestApplication_WebSocketProgress(t *testing.T) {
	env := newTestEnv(t)
	testutil.WriteSampleDay(t, env.input, "20240102", "ACME")

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readMessage := func() events.WebSocketMessage {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg events.WebSocketMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	assert.Equal(t, events.MessageTypeConnect, readMessage().Type)

	resp := env.convert(t, `{"force":true}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var seen []events.MessageType
	for len(seen) == 0 || seen[len(seen)-1] != events.MessageTypeOperationCompleted {
		msg := readMessage()
		seen = append(seen, msg.Type)
		assert.NotEmpty(t, msg.TraceID)
		require.Less(t, len(seen), 10, "unexpected stream: %v", seen)
	}

	assert.Equal(t, []events.MessageType{
		events.MessageTypeOperationStarted,
		events.MessageTypeFileProgress,
		events.MessageTypeOperationCompleted,
	}, seen)
}

func TestApplication_StartStop(t *testing.T) {
	cfg := testConfig(t)
	logger, logs := testutil.NewTestLogger(t)

	app, err := NewApplication(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))

	addr := app.Addr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, app.Stop(context.Background()))
	require.NoError(t, app.Stop(context.Background()))
	assert.True(t, logs.ContainsMessage("Application shutdown complete"))

	_, err = http.Get("http://" + addr + "/healthz")
	assert.Error(t, err)
}

func TestNewApplication_RequiresConfig(t *testing.T) {
	_, err := NewApplication(nil, nil)
	assert.Error(t, err)
}
