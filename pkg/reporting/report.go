/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report.go
Description: Search reports for Akaylee Mimic. Builds a report from a search result and
writes it as YAML, JSON or an aligned text table, with timestamped file names.
*/

package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"
	"github.com/kleascm/akaylee-mimic/pkg/core"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"
)

// DefaultPattern names saved reports by their generation time
const DefaultPattern = "%Y-%m-%d_%H-%M-%S"

// Report is the exported summary of one search
type Report struct {
	RunID       string             `json:"run_id" yaml:"run_id"`
	Target      string             `json:"target" yaml:"target"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	GeneratedAt time.Time          `json:"generated_at" yaml:"generated_at"`
	Score       float64            `json:"score" yaml:"score"`
	Exact       bool               `json:"exact" yaml:"exact"`
	Program     string             `json:"program" yaml:"program"`
	Iterations  int                `json:"iterations" yaml:"iterations"`
	Executions  int                `json:"executions" yaml:"executions"`
	ExecPerSec  float64            `json:"executions_per_sec" yaml:"executions_per_sec"`
	Inputs      int                `json:"inputs" yaml:"inputs"`
	Categories  int                `json:"categories" yaml:"categories"`
	Proposals   int                `json:"proposals" yaml:"proposals"`
	Elapsed     string             `json:"elapsed" yaml:"elapsed"`
	Phases      []core.PhaseStats  `json:"phases" yaml:"phases"`
	Config      *core.SearchConfig `json:"config,omitempty" yaml:"config,omitempty"`
}

// NewReport summarizes result for the named target
func NewReport(target, description string, result *core.SearchResult, config *core.SearchConfig) *Report {
	r := &Report{
		RunID:       result.RunID,
		Target:      target,
		Description: description,
		GeneratedAt: time.Now(),
		Score:       result.Score,
		Exact:       result.Score == 0,
		Iterations:  result.Iterations,
		Executions:  result.Executions,
		ExecPerSec:  result.ExecutionsPerSecond(),
		Inputs:      result.Inputs,
		Categories:  result.Categories,
		Proposals:   result.Proposals,
		Elapsed:     result.Elapsed.Round(time.Millisecond).String(),
		Phases:      result.Phases,
		Config:      config,
	}
	if result.Program != nil {
		r.Program = result.Program.String()
	}
	return r
}

// WriteYAML encodes the report as YAML
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

// WriteJSON encodes the report as indented JSON
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteTable prints the summary and the per-phase statistics as aligned text
func (r *Report) WriteTable(w io.Writer) error {
	summary := [][]string{
		{"target", r.Target},
		{"run", r.RunID},
		{"score", fmt.Sprintf("%.4f", r.Score)},
		{"exact", fmt.Sprintf("%t", r.Exact)},
		{"inputs", fmt.Sprintf("%d", r.Inputs)},
		{"categories", fmt.Sprintf("%d", r.Categories)},
		{"iterations", fmt.Sprintf("%d", r.Iterations)},
		{"executions", fmt.Sprintf("%d (%.0f/sec)", r.Executions, r.ExecPerSec)},
		{"elapsed", r.Elapsed},
	}
	if err := Table(w, nil, summary); err != nil {
		return err
	}

	if len(r.Phases) > 0 {
		rows := make([][]string, len(r.Phases))
		for i, ps := range r.Phases {
			rows[i] = []string{
				string(ps.Phase),
				fmt.Sprintf("%d", ps.Inputs),
				fmt.Sprintf("%d", ps.Iterations),
				fmt.Sprintf("%d", ps.Executions),
				fmt.Sprintf("%.4f", ps.Score),
				ps.Elapsed.Round(time.Millisecond).String(),
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := Table(w, []string{"PHASE", "INPUTS", "ITERATIONS", "EXECUTIONS", "SCORE", "ELAPSED"}, rows); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n%s\n", r.Program)
	return err
}

// Table writes rows as columns padded to their display width
// A nil header prints no heading line.
func Table(w io.Writer, header []string, rows [][]string) error {
	all := rows
	if header != nil {
		all = append([][]string{header}, rows...)
	}
	var widths []int
	for _, row := range all {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	for _, row := range all {
		var b strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the report as YAML and JSON into dir
// File names are the generation time formatted with the strftime pattern, followed by the
// target name. It returns the written paths.
func (r *Report) Save(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	base := timefmt.Format(r.GeneratedAt, pattern)
	if r.Target != "" {
		base += "_" + r.Target
	}

	writers := []struct {
		ext   string
		write func(io.Writer) error
	}{
		{".yaml", r.WriteYAML},
		{".json", r.WriteJSON},
	}
	paths := make([]string, 0, len(writers))
	for _, wr := range writers {
		path := filepath.Join(dir, base+wr.ext)
		if err := writeFile(path, wr.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
