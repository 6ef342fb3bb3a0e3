/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report_test.go
Description: Tests for search reports and the HTML dashboard.
*/

package reporting

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kleascm/akaylee-mimic/pkg/core"
	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport(t *testing.T) *Report {
	t.Helper()
	p, err := ir.Parse(`var n0 = arg0.length
return "c"`)
	require.NoError(t, err)
	result := &core.SearchResult{
		RunID:      "6f1c2a9e-0000-4000-8000-000000000000",
		Program:    p,
		Score:      0.25,
		Iterations: 1200,
		Executions: 4800,
		Inputs:     4,
		Categories: 2,
		Proposals:  1,
		Elapsed:    2 * time.Second,
		Phases: []core.PhaseStats{
			{Phase: core.PhaseCategorySearch, Inputs: 3, Iterations: 800, Executions: 2400, Score: 0, Elapsed: 1200 * time.Millisecond},
			{Phase: core.PhaseWholeInputSearch, Inputs: 4, Iterations: 400, Executions: 1600, Score: 0.25, Elapsed: 800 * time.Millisecond},
		},
	}
	r := NewReport("array.pop", "Removes and returns the last element", result, core.DefaultSearchConfig())
	r.GeneratedAt = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	return r
}

// TestNewReport tests the summary derived from a search result
func TestNewReport(t *testing.T) {
	r := sampleReport(t)
	assert.False(t, r.Exact)
	assert.Equal(t, "2s", r.Elapsed)
	assert.InDelta(t, 2400, r.ExecPerSec, 1e-9)
	assert.Equal(t, "var n0 = arg0.length\nreturn \"c\"", r.Program)

	exact := NewReport("noop", "", &core.SearchResult{}, nil)
	assert.True(t, exact.Exact)
	assert.Empty(t, exact.Program)
	assert.Zero(t, exact.ExecPerSec)
}

// TestReportEncodings tests that YAML and JSON output decode to the same report
func TestReportEncodings(t *testing.T) {
	r := sampleReport(t)

	var yamlBuf bytes.Buffer
	require.NoError(t, r.WriteYAML(&yamlBuf))
	var fromYAML Report
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))

	var jsonBuf bytes.Buffer
	require.NoError(t, r.WriteJSON(&jsonBuf))
	var fromJSON Report
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))

	if diff := cmp.Diff(fromJSON, fromYAML); diff != "" {
		t.Errorf("YAML and JSON reports differ (-json +yaml):\n%s", diff)
	}
	assert.Equal(t, r.Program, fromYAML.Program)
	assert.Equal(t, r.Phases, fromJSON.Phases)
	assert.Equal(t, 5000, fromYAML.Config.Iterations)
	assert.True(t, r.GeneratedAt.Equal(fromJSON.GeneratedAt))
}

// TestWriteTable tests the text summary
func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport(t).WriteTable(&buf))
	out := buf.String()

	assert.Contains(t, out, "target      array.pop\n")
	assert.Contains(t, out, "score       0.2500\n")
	assert.Contains(t, out, "executions  4800 (2400/sec)\n")
	assert.Contains(t, out, "PHASE               INPUTS  ITERATIONS  EXECUTIONS  SCORE   ELAPSED\n")
	assert.Contains(t, out, "category-search     3       800         2400        0.0000  1.2s\n")
	assert.True(t, strings.HasSuffix(out, "\nvar n0 = arg0.length\nreturn \"c\"\n"))
}

// TestTableWideRunes tests alignment by display width
func TestTableWideRunes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, []string{"NAME", "VALUE"}, [][]string{
		{"配列", "1"},
		{"ab", "2"},
	}))
	assert.Equal(t, "NAME  VALUE\n配列  1\nab    2\n", buf.String())
}

// TestSave tests the timestamped report files
func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	paths, err := sampleReport(t).Save(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "2026-03-14_15-09-26_array.pop.yaml"),
		filepath.Join(dir, "2026-03-14_15-09-26_array.pop.json"),
	}, paths)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	paths, err = sampleReport(t).Save(dir, "%Y%m%d")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260314_array.pop.yaml"), paths[0])
}

// TestDashboard tests the rendered page and its file
func TestDashboard(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	dir := t.TempDir()
	dg := NewDashboardGenerator(dir, logger)
	r := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, dg.Render(&buf, r))
	page := buf.String()
	assert.Contains(t, page, "<h1>array.pop</h1>")
	assert.Contains(t, page, `class="approx">Score 0.2500`)
	assert.Contains(t, page, "<td>whole-input-search</td>")
	assert.Contains(t, page, "return &#34;c&#34;")

	path, err := dg.GenerateDashboard(r, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2026-03-14_15-09-26_array.pop.html"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, page, string(data))
}
