package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONOutputCarriesRunAndComponent(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "")

	var buf bytes.Buffer
	log := NewTo(&buf).Component("pipeline").WithRun("run-1")
	log.WithError(errors.New("boom")).Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pipeline", entry["component"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestWithRunGeneratesID(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	var buf bytes.Buffer
	NewTo(&buf).WithRun("").Info("x")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Len(t, entry["run_id"], 36)
}

func TestWithRequestPrefersHeaderID(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	var buf bytes.Buffer
	r := httptest.NewRequest("POST", "/export", nil)
	r.Header.Set("X-Request-ID", "abc")
	NewTo(&buf).WithRequest(r).Info("req")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc", entry["req_id"])
	assert.Equal(t, "/export", entry["path"])
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "warn")

	var buf bytes.Buffer
	NewTo(&buf).Info("dropped")
	assert.Zero(t, buf.Len())
}
