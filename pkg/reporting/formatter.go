package reporting

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ReportFormat represents the report output format
type ReportFormat string

const (
	ReportFormatHTML ReportFormat = "html"
	ReportFormatText ReportFormat = "text"
	ReportFormatJSON ReportFormat = "json"
)

// Formatter generates formatted reports from campaign data
type Formatter struct {
	logger *Logger
}

// NewFormatter creates a new report formatter
func NewFormatter(logger *Logger) *Formatter {
	return &Formatter{logger: logger}
}

// GenerateReport generates a report in the specified format
func (f *Formatter) GenerateReport(report *CampaignReport, format ReportFormat, outputPath string) error {
	switch format {
	case ReportFormatHTML:
		return f.generateHTMLReport(report, outputPath)
	case ReportFormatText:
		return f.generateTextReport(report, outputPath)
	case ReportFormatJSON:
		return fmt.Errorf("JSON format is automatically saved by storage")
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

func (f *Formatter) generateHTMLReport(report *CampaignReport, outputPath string) error {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05")
		},
		"statusClass": func(status CampaignStatus) string {
			if status == StatusCompleted {
				return "pass"
			}
			return "fail"
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write HTML report: %w", err)
	}

	f.logger.Info("HTML report generated", "path", outputPath)
	return nil
}

func (f *Formatter) generateTextReport(report *CampaignReport, outputPath string) error {
	var buf bytes.Buffer

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString("   DIAMETER LOAD CAMPAIGN REPORT\n")
	buf.WriteString(strings.Repeat("=", 80) + "\n\n")

	buf.WriteString("CAMPAIGN SUMMARY\n")
	buf.WriteString(strings.Repeat("-", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Status:       %s\n", report.Status))
	buf.WriteString(fmt.Sprintf("Campaign ID:  %s\n", report.CampaignID))
	buf.WriteString(fmt.Sprintf("Start Time:   %s\n", report.StartTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("End Time:     %s\n", report.EndTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("Duration:     %s\n", report.Duration))
	if report.Message != "" {
		buf.WriteString(fmt.Sprintf("Message:      %s\n", report.Message))
	}
	buf.WriteString(fmt.Sprintf("Total RPS:    %.2f\n", report.TotalRPS))
	buf.WriteString(fmt.Sprintf("Elapsed:      %s\n", report.Elapsed))
	buf.WriteString(fmt.Sprintf("Failed:       %d\n", report.Failed))
	buf.WriteString(fmt.Sprintf("Timed out:    %d\n", report.TimedOut))
	buf.WriteString("\n")

	if len(report.Workers) > 0 {
		buf.WriteString("WORKERS\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		for _, w := range report.Workers {
			buf.WriteString(fmt.Sprintf("%d. ", w.Index))
			if w.Error != "" {
				buf.WriteString(fmt.Sprintf("error: %s\n", w.Error))
				continue
			}
			buf.WriteString(fmt.Sprintf("rps=%.2f elapsed=%s failed=%d timed_out=%d\n",
				w.RPS, w.Elapsed, w.Failed, w.TimedOut))
		}
		buf.WriteString("\n")
	}

	if len(report.Errors) > 0 {
		buf.WriteString("ERRORS\n")
		buf.WriteString(strings.Repeat("-", 80) + "\n")
		for i, err := range report.Errors {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, err))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(strings.Repeat("=", 80) + "\n")
	buf.WriteString(fmt.Sprintf("Generated: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	buf.WriteString(strings.Repeat("=", 80) + "\n")

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}

	f.logger.Info("text report generated", "path", outputPath)
	return nil
}

// GetReportPath generates a report file path based on a campaign
// report and format.
func GetReportPath(report *CampaignReport, format ReportFormat, outputDir string) string {
	timestamp := report.StartTime.Format("20060102-150405")
	ext := string(format)
	filename := fmt.Sprintf("report-%s-%s.%s", timestamp, report.CampaignID, ext)
	return filepath.Join(outputDir, filename)
}

// htmlTemplate is the HTML report layout for a campaign run.
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Diameter Load Campaign Report - {{.CampaignID}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1000px;
            margin: 0 auto;
            padding: 20px;
            background-color: #f5f5f5;
        }
        .container {
            background-color: white;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            padding: 30px;
        }
        h1, h2 {
            color: #2c3e50;
            border-bottom: 2px solid #3498db;
            padding-bottom: 10px;
        }
        .status {
            display: inline-block;
            padding: 5px 15px;
            border-radius: 4px;
            font-weight: bold;
            margin-left: 10px;
        }
        .status.pass { background-color: #27ae60; color: white; }
        .status.fail { background-color: #e74c3c; color: white; }
        .info-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 20px;
            margin: 20px 0;
        }
        .info-box { background-color: #ecf0f1; padding: 15px; border-radius: 4px; }
        .info-label { font-weight: bold; color: #7f8c8d; font-size: 0.9em; margin-bottom: 5px; }
        .info-value { font-size: 1.1em; color: #2c3e50; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        th, td { padding: 12px; text-align: left; border-bottom: 1px solid #ddd; }
        th { background-color: #3498db; color: white; }
        tr:hover { background-color: #f5f5f5; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Diameter Load Campaign Report<span class="status {{statusClass .Status}}">{{.Status}}</span></h1>
        <p>Campaign ID: {{.CampaignID}}</p>

        <div class="info-grid">
            <div class="info-box">
                <div class="info-label">Start Time</div>
                <div class="info-value">{{formatTime .StartTime}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">End Time</div>
                <div class="info-value">{{formatTime .EndTime}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">Total RPS</div>
                <div class="info-value">{{.TotalRPS}}</div>
            </div>
            <div class="info-box">
                <div class="info-label">Elapsed</div>
                <div class="info-value">{{.Elapsed}}</div>
            </div>
        </div>

        {{if .Workers}}
        <h2>Workers</h2>
        <table>
            <thead>
                <tr><th>Index</th><th>RPS</th><th>Elapsed</th><th>Failed</th><th>Timed Out</th><th>Error</th></tr>
            </thead>
            <tbody>
                {{range .Workers}}
                <tr>
                    <td>{{.Index}}</td>
                    <td>{{.RPS}}</td>
                    <td>{{.Elapsed}}</td>
                    <td>{{.Failed}}</td>
                    <td>{{.TimedOut}}</td>
                    <td>{{.Error}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
        {{end}}

        {{if .Errors}}
        <h2>Errors</h2>
        <ul>
            {{range .Errors}}
            <li>{{.}}</li>
            {{end}}
        </ul>
        {{end}}

        <p style="text-align: center; color: #7f8c8d; margin-top: 30px;">
            Generated {{formatTime .EndTime}}
        </p>
    </div>
</body>
</html>
`
