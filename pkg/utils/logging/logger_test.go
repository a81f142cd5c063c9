package logging_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/m-mizutani/digitnote/pkg/utils/logging"
	"github.com/m-mizutani/gt"
)

func jsonLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var entry map[string]any
		gt.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestRelayJSONLines(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithFormat("info", logging.FormatJSON, &buf)

	logger.Debug("model answered", "raw", "12")
	logger.Info("request", "method", "POST", "path", "/api/recognize", "status", 200)
	logger.Error("recognition failed", "status", 502)

	entries := jsonLines(t, &buf)
	gt.A(t, entries).Length(2)
	gt.Equal(t, entries[0]["msg"], any("request"))
	gt.Equal(t, entries[0]["path"], any("/api/recognize"))
	gt.Equal(t, entries[0]["status"], any(float64(200)))
	gt.Equal(t, entries[1]["level"], any("ERROR"))
}

func TestFormatNameIsCaseInsensitive(t *testing.T) {
	var buf bytes.Buffer
	logging.NewWithFormat("info", logging.Format("JSON"), &buf).Info("saved recognition", "id", "r1")
	gt.A(t, jsonLines(t, &buf)).Length(1)

	buf.Reset()
	logging.NewWithFormat("info", logging.Format("unknown"), &buf).Info("saved recognition")
	gt.S(t, buf.String()).Contains("saved recognition")
	gt.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestLogLevelFlag(t *testing.T) {
	testCases := map[string]struct {
		debug bool
		warn  bool
	}{
		"debug":   {debug: true, warn: true},
		"Info":    {debug: false, warn: true},
		"warning": {debug: false, warn: true},
		"error":   {debug: false, warn: false},
		"verbose": {debug: false, warn: true},
	}

	for level, tc := range testCases {
		t.Run(level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := logging.NewWithFormat(level, logging.FormatJSON, &buf)
			logger.Debug("command failed")
			logger.Warn("records are kept in memory and lost on exit")

			gt.Equal(t, bytes.Contains(buf.Bytes(), []byte("command failed")), tc.debug)
			gt.Equal(t, bytes.Contains(buf.Bytes(), []byte("lost on exit")), tc.warn)
		})
	}
}

func TestRequestScopedLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logging.NewWithFormat("debug", logging.FormatJSON, &buf)

	ctx := logging.With(context.Background(), base.With("request_id", "req-1"))
	logging.From(ctx).Info("recognition rejected", "status", 400)

	entries := jsonLines(t, &buf)
	gt.A(t, entries).Length(1)
	gt.Equal(t, entries[0]["request_id"], any("req-1"))
}

func TestFromFallsBackToDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	var buf bytes.Buffer
	configured := logging.New("warn", &buf)
	logging.SetDefault(configured)

	logger := logging.From(context.Background())
	gt.Equal(t, logger, configured)

	logger.Warn("failed to load .env")
	gt.S(t, buf.String()).Contains("failed to load .env")
}

func TestNilWriterUsesStderr(t *testing.T) {
	gt.V(t, logging.NewWithFormat("info", logging.FormatConsole, nil)).NotNil()
	gt.V(t, logging.Default()).NotNil()
}
