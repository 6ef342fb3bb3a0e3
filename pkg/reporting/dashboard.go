/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: dashboard.go
Description: HTML dashboard for Akaylee Mimic search reports. Renders the summary, the
per-phase statistics and the synthesized program into a single static page.
*/

package reporting

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/itchyny/timefmt-go"
	"github.com/sirupsen/logrus"
)

// DashboardGenerator renders reports as HTML pages
type DashboardGenerator struct {
	outputDir string
	logger    *logrus.Logger
	templates *template.Template
}

// NewDashboardGenerator creates a generator writing into outputDir
func NewDashboardGenerator(outputDir string, logger *logrus.Logger) *DashboardGenerator {
	return &DashboardGenerator{
		outputDir: outputDir,
		logger:    logger,
		templates: template.Must(template.New("dashboard").Funcs(template.FuncMap{
			"score": func(f float64) string { return fmt.Sprintf("%.4f", f) },
		}).Parse(dashboardTemplate)),
	}
}

// Render writes the dashboard page for r
func (dg *DashboardGenerator) Render(w io.Writer, r *Report) error {
	if err := dg.templates.Execute(w, r); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// GenerateDashboard writes the page for r into the output directory and returns its path
func (dg *DashboardGenerator) GenerateDashboard(r *Report, pattern string) (string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if err := os.MkdirAll(dg.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := timefmt.Format(r.GeneratedAt, pattern) + "_" + r.Target + ".html"
	path := filepath.Join(dg.outputDir, name)
	if err := writeFile(path, func(w io.Writer) error { return dg.Render(w, r) }); err != nil {
		return "", err
	}
	dg.logger.WithFields(logrus.Fields{"path": path}).Info("Dashboard generated")
	return path, nil
}

const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Target}} - Akaylee Mimic</title>
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background: #f4f5fb; color: #333; }
        .container { max-width: 1100px; margin: 0 auto; padding: 20px; }
        .card { background: #fff; border-radius: 12px; padding: 20px; margin-bottom: 20px; box-shadow: 0 4px 16px rgba(0, 0, 0, 0.08); }
        .exact { color: #2f855a; }
        .approx { color: #c05621; }
        table { border-collapse: collapse; width: 100%; }
        th, td { text-align: left; padding: 6px 10px; border-bottom: 1px solid #e2e8f0; }
        pre { background: #1a202c; color: #e2e8f0; padding: 16px; border-radius: 8px; overflow-x: auto; }
    </style>
</head>
<body>
<div class="container">
    <div class="card">
        <h1>{{.Target}}</h1>
        {{if .Description}}<p>{{.Description}}</p>{{end}}
        <p>Run {{.RunID}} generated {{.GeneratedAt.Format "2006-01-02 15:04:05"}}</p>
        <h2 class="{{if .Exact}}exact{{else}}approx{{end}}">Score {{score .Score}}</h2>
    </div>
    <div class="card">
        <table>
            <tr><th>Inputs</th><td>{{.Inputs}}</td></tr>
            <tr><th>Categories</th><td>{{.Categories}}</td></tr>
            <tr><th>Proposals</th><td>{{.Proposals}}</td></tr>
            <tr><th>Iterations</th><td>{{.Iterations}}</td></tr>
            <tr><th>Executions</th><td>{{.Executions}}</td></tr>
            <tr><th>Elapsed</th><td>{{.Elapsed}}</td></tr>
        </table>
    </div>
    {{if .Phases}}
    <div class="card">
        <table>
            <tr><th>Phase</th><th>Inputs</th><th>Iterations</th><th>Executions</th><th>Score</th><th>Elapsed</th></tr>
            {{range .Phases}}
            <tr><td>{{.Phase}}</td><td>{{.Inputs}}</td><td>{{.Iterations}}</td><td>{{.Executions}}</td><td>{{score .Score}}</td><td>{{.Elapsed}}</td></tr>
            {{end}}
        </table>
    </div>
    {{end}}
    <div class="card">
        <pre>{{.Program}}</pre>
    </div>
</div>
</body>
</html>
`
