/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter.go
Description: Custom log formatters for Akaylee Mimic. Colored, structured console output
with search-specific prefixes and compact rendering of scores and durations.
*/

package logging

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CustomFormatter provides colored, structured logging output
type CustomFormatter struct {
	Timestamp bool
	Colors    bool
}

// Format formats a log entry
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, "", f.formatValue), nil
}

func (f *CustomFormatter) format(entry *logrus.Entry, prefix string, value func(string, interface{}) string) []byte {
	var output strings.Builder

	if f.Timestamp {
		output.WriteString(f.paint(36, entry.Time.Format("2006-01-02 15:04:05.000")))
		output.WriteString(" ")
	}

	level := strings.ToUpper(entry.Level.String())
	output.WriteString(f.paint(f.getLevelColor(entry.Level), level))
	output.WriteString(" ")

	if prefix != "" {
		output.WriteString(f.paint(35, "["+prefix+"]"))
		output.WriteString(" ")
	}

	output.WriteString(entry.Message)
	if len(entry.Data) > 0 {
		output.WriteString(" ")
		output.WriteString(f.formatFields(entry.Data, value))
	}
	output.WriteString("\n")
	return []byte(output.String())
}

func (f *CustomFormatter) paint(color int, s string) string {
	if !f.Colors {
		return s
	}
	return fmt.Sprintf("\033[%dm%s\033[0m", color, s)
}

// getLevelColor returns the ANSI color code for a log level
func (f *CustomFormatter) getLevelColor(level logrus.Level) int {
	switch level {
	case logrus.InfoLevel:
		return 32 // Green
	case logrus.WarnLevel:
		return 33 // Yellow
	case logrus.ErrorLevel:
		return 31 // Red
	case logrus.FatalLevel, logrus.PanicLevel:
		return 35 // Magenta
	default:
		return 37 // White
	}
}

// formatFields renders fields in key order
func (f *CustomFormatter) formatFields(fields logrus.Fields, value func(string, interface{}) string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if f.Colors {
			parts = append(parts, fmt.Sprintf("\033[34m%s\033[0m=\033[32m%s\033[0m", k, value(k, fields[k])))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%s", k, value(k, fields[k])))
		}
	}
	return strings.Join(parts, " ")
}

// formatValue formats a field value appropriately
func (f *CustomFormatter) formatValue(_ string, value interface{}) string {
	switch v := value.(type) {
	case time.Duration:
		return v.Round(time.Millisecond).String()
	case time.Time:
		return v.Format("15:04:05.000")
	case string:
		if len(v) > 50 {
			return v[:50] + "..."
		}
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// SearchFormatter adds search-specific prefixes and value rendering
type SearchFormatter struct {
	CustomFormatter
}

// Format formats search log entries
func (f *SearchFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, searchPrefix(entry.Message), f.formatSearchValue), nil
}

// searchPrefix tags a log line by the message it carries
func searchPrefix(message string) string {
	switch {
	case strings.Contains(message, "phase"):
		return "PHASE"
	case strings.Contains(message, "Score improved"):
		return "IMPROVE"
	case strings.Contains(message, "proposal"):
		return "INFER"
	case strings.Contains(message, "Search"):
		return "SEARCH"
	default:
		return ""
	}
}

func (f *SearchFormatter) formatSearchValue(key string, value interface{}) string {
	switch key {
	case "score", "from", "to":
		if s, ok := value.(float64); ok {
			return fmt.Sprintf("%.4f", s)
		}
	case "executions_per_sec":
		if r, ok := value.(float64); ok {
			return fmt.Sprintf("%.2f/sec", r)
		}
	case "run":
		if s, ok := value.(string); ok && len(s) > 8 {
			return s[:8]
		}
	}
	return f.formatValue(key, value)
}
