package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disdro-l0/internal/config"
	"github.com/couchcryptid/disdro-l0/internal/domain"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNewLogger_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	logger, closer := NewLogger(&config.Config{LogLevel: "info", LogFormat: "json", LogFile: path})

	logger.Info("hello", "station", "S1")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "S1", line["station"])
}

func TestLogReporter_Levels(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(slog.New(slog.NewJSONHandler(&buf, nil)))

	r.Report(context.Background(), domain.StationEvent{RunID: "r1", Station: "S1", State: domain.StateParsed, Rows: 10})
	r.Report(context.Background(), domain.StationEvent{RunID: "r1", Station: "S1", State: domain.StateParsed, Kind: domain.KindPartialData, Message: "2 lines skipped"})
	r.Report(context.Background(), domain.StationEvent{RunID: "r1", Station: "S1", State: domain.StateFailed, Stage: domain.StateParsed, Kind: domain.KindIO, Message: "open failed"})

	dec := json.NewDecoder(&buf)
	var levels []string
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		levels = append(levels, line["level"].(string))
	}
	assert.Equal(t, []string{"INFO", "WARN", "ERROR"}, levels)
}

func TestNewMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()

	m.Stations.WithLabelValues("done").Inc()
	m.StationFailures.WithLabelValues("parsed", "io").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Stations.WithLabelValues("done")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StationFailures.WithLabelValues("parsed", "io")))
}
