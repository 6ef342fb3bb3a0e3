/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logging_test.go
Description: Tests for the logger and its formatters. Covers configuration validation,
file output, log file rotation and the search formatter's prefixes and value rendering.
*/

package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoggerConfigValidate tests rejection of unknown levels and formats
func TestLoggerConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultLoggerConfig().Validate())

	c := DefaultLoggerConfig()
	c.Level = "verbose"
	assert.Error(t, c.Validate())

	c = DefaultLoggerConfig()
	c.Format = "xml"
	assert.Error(t, c.Validate())

	c = DefaultLoggerConfig()
	c.OutputDir = t.TempDir()
	c.MaxFiles = 0
	_, err := NewLogger(c)
	assert.Error(t, err)
}

// TestLoggerFileOutput tests that JSON entries reach the log file
func TestLoggerFileOutput(t *testing.T) {
	dir := t.TempDir()
	off := false
	l, err := NewLogger(&LoggerConfig{
		Level:     LogLevelDebug,
		Format:    LogFormatJSON,
		OutputDir: dir,
		MaxFiles:  5,
		Colors:    &off,
	})
	require.NoError(t, err)
	l.console = io.Discard
	l.logger.SetOutput(io.MultiWriter(l.console, l.fileHandle))

	l.LogSearchStart("array.pop", 12, logrus.Fields{"seed": 42})
	l.LogSearchResult("array.pop", 0, 3400, 1700)
	require.NoError(t, l.Close())

	files, err := filepath.Glob(filepath.Join(dir, filePrefix+"*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)

	var opened map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &opened))
	assert.Equal(t, files[0], opened["log_file"])

	var start map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &start))
	assert.Equal(t, "Search started", start["msg"])
	assert.Equal(t, "array.pop", start["target"])
	assert.EqualValues(t, 12, start["inputs"])
	assert.EqualValues(t, 42, start["seed"])

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &result))
	assert.EqualValues(t, 3400, result["executions"])
}

// TestLoggerRotation tests that only the newest MaxFiles log files survive Close
func TestLoggerRotation(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 4; i++ {
		name := fmt.Sprintf("%s2000-01-01_00-00-%02d.log", filePrefix, i)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	c := DefaultLoggerConfig()
	c.OutputDir = dir
	c.MaxFiles = 2
	l, err := NewLogger(c)
	require.NoError(t, err)
	current := l.fileHandle.Name()
	require.NoError(t, l.Close())

	files, err := filepath.Glob(filepath.Join(dir, filePrefix+"*.log"))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, filePrefix+"2000-01-01_00-00-03.log"), files[0])
	assert.Equal(t, current, files[1])
}

// TestSearchFormatter tests prefixes and rendering of search fields
func TestSearchFormatter(t *testing.T) {
	f := &SearchFormatter{CustomFormatter{}}
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Level:   logrus.InfoLevel,
		Message: "Search phase complete",
		Data: logrus.Fields{
			"score":   0.123456,
			"run":     "0123456789abcdef",
			"elapsed": 1500 * time.Microsecond,
		},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "INFO [PHASE] Search phase complete elapsed=2ms run=01234567 score=0.1235\n", string(out))

	entry.Message = "Score improved"
	entry.Level = logrus.DebugLevel
	entry.Data = logrus.Fields{"from": 2.0, "to": 1.5}
	out, err = f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "DEBUG [IMPROVE] Score improved from=2.0000 to=1.5000\n", string(out))

	assert.Equal(t, "SEARCH", searchPrefix("Search started"))
	assert.Equal(t, "INFER", searchPrefix("Selected loop proposal"))
	assert.Equal(t, "", searchPrefix("Recorded reference trace"))
}

// TestCustomFormatterColors tests ANSI coloring and long string truncation
func TestCustomFormatterColors(t *testing.T) {
	f := &CustomFormatter{Colors: true}
	entry := &logrus.Entry{Logger: logrus.New(), Level: logrus.ErrorLevel, Message: "boom"}
	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "\033[31mERROR\033[0m boom\n", string(out))

	long := strings.Repeat("x", 60)
	assert.Equal(t, strings.Repeat("x", 50)+"...", f.formatValue("program", long))
}

// TestLoggerFormats tests the formatter chosen for each format
func TestLoggerFormats(t *testing.T) {
	off := false
	text, err := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: LogFormatText, Timestamp: true, Colors: &off})
	require.NoError(t, err)
	tf, ok := text.GetLogger().Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.True(t, tf.FullTimestamp)
	assert.True(t, tf.DisableColors)

	js, err := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: LogFormatJSON})
	require.NoError(t, err)
	jf, ok := js.GetLogger().Formatter.(*logrus.JSONFormatter)
	require.True(t, ok)
	assert.Equal(t, time.RFC3339, jf.TimestampFormat)

	custom, err := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: LogFormatCustom, Colors: &off})
	require.NoError(t, err)
	_, ok = custom.GetLogger().Formatter.(*SearchFormatter)
	assert.True(t, ok)
}
