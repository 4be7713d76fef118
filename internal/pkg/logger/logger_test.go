package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "realtime.log")
	l := NewIsolatedLogger(path)

	l.Info("WS", "connection opened", map[string]interface{}{"tenant_id": "t1"})
	l.Debug("WS", "below file level", nil)
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"message":"connection opened"`)
	assert.Contains(t, string(raw), `"module":"WS"`)
	assert.Contains(t, string(raw), `"tenant_id":"t1"`)
	assert.NotContains(t, string(raw), "below file level")
}

type recorder struct {
	nopLogger
	lastModule  string
	lastDetails map[string]interface{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Sync() error                                  { return nil }

func (r *recorder) Error(module, message string, details map[string]interface{}) {
	r.lastModule = module
	r.lastDetails = details
}

func TestWatermillAdapterMergesFields(t *testing.T) {
	rec := &recorder{}
	a := NewWatermillAdapter(rec).With(watermill.LogFields{"topic": "ingestion.jobs"})

	a.Error("handler failed", errors.New("boom"), watermill.LogFields{"attempt": 2})

	assert.Equal(t, "WATERMILL", rec.lastModule)
	assert.Equal(t, "ingestion.jobs", rec.lastDetails["topic"])
	assert.Equal(t, 2, rec.lastDetails["attempt"])
	assert.Equal(t, "boom", rec.lastDetails["error"])
}
