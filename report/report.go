// Package report renders the summary of a comparison run.
package report

import (
	"bytes"
	"encoding/json"
	"html/template"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/TFMV/tabmatch/metrics"
)

// -----------------------------
// Run Summary
// -----------------------------

// Export records one file written during a run.
type Export struct {
	Kind   string `json:"kind"`
	Format string `json:"format"`
	Path   string `json:"path"`
	Rows   int    `json:"rows"`
}

// Summary captures a single comparison run.
type Summary struct {
	ID          string            `json:"id"`
	FileA       string            `json:"file_a"`
	FileB       string            `json:"file_b"`
	KeyColumnsA []string          `json:"key_columns_a"`
	KeyColumnsB []string          `json:"key_columns_b"`
	TotalA      int               `json:"total_a"`
	TotalB      int               `json:"total_b"`
	Matched     int               `json:"matched"`
	Unmatched   int               `json:"unmatched"`
	Mapping     map[string]string `json:"mapping"`
	Exports     []Export          `json:"exports"`
	Steps       []metrics.Step    `json:"steps"`
	ReusedSaved bool              `json:"reused_saved_config"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     time.Time         `json:"end_time"`
	Duration    time.Duration     `json:"duration"`
}

// NewSummary starts a summary with a fresh run ID.
func NewSummary(fileA, fileB string) *Summary {
	return &Summary{
		ID:        uuid.NewString(),
		FileA:     fileA,
		FileB:     fileB,
		StartTime: time.Now().UTC(),
	}
}

// AddExport records a written file.
func (s *Summary) AddExport(kind, format, path string, rows int) {
	s.Exports = append(s.Exports, Export{Kind: kind, Format: format, Path: path, Rows: rows})
}

// Finish stamps the end time and duration.
func (s *Summary) Finish() {
	s.EndTime = time.Now().UTC()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// MatchRate returns the matched share of table B, in percent.
func (s *Summary) MatchRate() float64 {
	if s.TotalB == 0 {
		return 0
	}
	return float64(s.Matched) * 100 / float64(s.TotalB)
}

// -----------------------------
// Report Generator Interfaces
// -----------------------------

// ReportGenerator defines the methods for generating reports.
type ReportGenerator interface {
	GenerateReport(run *Summary) ([]byte, error)
	SaveReportToFile(run *Summary, filePath string) error
}

// -----------------------------
// JSON Report Generator
// -----------------------------

// JSONReportGenerator generates JSON reports.
type JSONReportGenerator struct{}

// GenerateReport serializes the Summary to JSON.
func (j *JSONReportGenerator) GenerateReport(run *Summary) ([]byte, error) {
	return json.MarshalIndent(run, "", "  ")
}

// SaveReportToFile saves the JSON report to a file.
func (j *JSONReportGenerator) SaveReportToFile(run *Summary, filePath string) error {
	data, err := j.GenerateReport(run)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// -----------------------------
// HTML Report Generator
// -----------------------------

// HTMLReportGenerator generates HTML reports.
type HTMLReportGenerator struct{}

// HTML template for the report.
const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Comparison Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { width: 100%; border-collapse: collapse; margin-top: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f4f4f4; }
    </style>
</head>
<body>
    <h1>Comparison Report</h1>
    <p><strong>Run:</strong> {{.ID}}</p>
    <p><strong>File A (reference):</strong> {{.FileA}} ({{.TotalA}} rows)</p>
    <p><strong>File B (extraction):</strong> {{.FileB}} ({{.TotalB}} rows)</p>
    <p><strong>Keys:</strong> {{range $i, $k := .KeyColumnsA}}{{if $i}}, {{end}}{{$k}}{{end}} &harr; {{range $i, $k := .KeyColumnsB}}{{if $i}}, {{end}}{{$k}}{{end}}</p>

    <h2>Partition</h2>
    <table>
        <tr><th>Matched</th><th>Unmatched</th><th>Match rate</th></tr>
        <tr><td>{{.Matched}}</td><td>{{.Unmatched}}</td><td>{{printf "%.1f" .MatchRate}}%</td></tr>
    </table>

    <h2>Field Mapping</h2>
    <table>
        <tr><th>File A field</th><th>File B field</th></tr>
        {{range $a, $b := .Mapping}}<tr><td>{{$a}}</td><td>{{$b}}</td></tr>
        {{end}}
    </table>

    <h2>Exports</h2>
    <ul>
        {{range .Exports}}<li>{{.Kind}} ({{.Format}}, {{.Rows}} rows): {{.Path}}</li>{{else}}<li>None</li>{{end}}
    </ul>

    <h2>Steps</h2>
    <table>
        <tr><th>Step</th><th>Rows</th><th>Duration</th></tr>
        {{range .Steps}}<tr><td>{{.Name}}</td><td>{{.Rows}}</td><td>{{.Duration}}</td></tr>
        {{end}}
    </table>

    <footer>
        <p>Generated on {{.EndTime}}</p>
    </footer>
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Parse(htmlTemplate))

// GenerateReport generates an HTML report from the run.
func (h *HTMLReportGenerator) GenerateReport(run *Summary) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, run); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveReportToFile saves the HTML report to a file.
func (h *HTMLReportGenerator) SaveReportToFile(run *Summary, filePath string) error {
	data, err := h.GenerateReport(run)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// SaveReports saves both JSON and HTML reports.
func SaveReports(run *Summary, jsonPath, htmlPath string) error {
	outputs := []struct {
		gen  ReportGenerator
		path string
	}{
		{&JSONReportGenerator{}, jsonPath},
		{&HTMLReportGenerator{}, htmlPath},
	}
	for _, o := range outputs {
		if err := o.gen.SaveReportToFile(run, o.path); err != nil {
			return err
		}
	}
	return nil
}

// ReportFromFilePath loads a JSON report written by SaveReports.
func ReportFromFilePath(filePath string) (*Summary, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var run Summary
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}
