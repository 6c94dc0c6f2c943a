package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetHealth() {
	health.Lock()
	health.components = make(map[string]componentState)
	health.started = time.Now()
	health.Unlock()
}

func getReport(t *testing.T, handler http.HandlerFunc) (int, healthReport) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var report healthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	return rec.Code, report
}

func TestHealthHandlerAllHealthy(t *testing.T) {
	resetHealth()
	RegisterComponent("engine", true, "")
	RegisterComponent("rpc", true, "")

	code, report := getReport(t, HealthHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", report.Status)
	assert.Equal(t, "healthy", report.Components["engine"])
}

func TestHealthHandlerUnhealthyComponent(t *testing.T) {
	resetHealth()
	RegisterComponent("engine", true, "")
	RegisterComponent("rpc", false, "listener closed")

	code, report := getReport(t, HealthHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", report.Status)
	assert.Equal(t, "unhealthy: listener closed", report.Components["rpc"])
}

func TestReadyHandlerBeforeRegistration(t *testing.T) {
	resetHealth()

	code, report := getReport(t, ReadyHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", report.Status)
}

func TestReadyHandlerAfterStartup(t *testing.T) {
	resetHealth()
	RegisterComponent("cache", true, "")

	code, report := getReport(t, ReadyHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", report.Status)
	assert.Equal(t, "ready", report.Components["cache"])
}

func TestRegisterComponentUpdatesInPlace(t *testing.T) {
	resetHealth()
	RegisterComponent("rpc", false, "starting")
	RegisterComponent("rpc", true, "")

	code, report := getReport(t, ReadyHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", report.Status)
}

func TestLivenessHandlerAlwaysOK(t *testing.T) {
	resetHealth()

	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "alive", body["status"])
}
