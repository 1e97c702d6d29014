package reporting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OutputFormat represents the progress output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ProgressReporter reports campaign execution progress
type ProgressReporter struct {
	format OutputFormat
	logger *Logger
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(format OutputFormat, logger *Logger) *ProgressReporter {
	return &ProgressReporter{
		format: format,
		logger: logger,
	}
}

// ReportState reports the current campaign state
func (pr *ProgressReporter) ReportState(state LiveCampaignState) {
	switch pr.format {
	case FormatJSON:
		pr.reportJSON(state)
	default:
		pr.reportText(state)
	}
}

// ReportWorkerFailed reports that a worker could not complete its run.
func (pr *ProgressReporter) ReportWorkerFailed(index int, reason string) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "worker_failed",
			"worker":    index,
			"reason":    reason,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	default:
		fmt.Printf("[WORKER %d] failed: %s\n", index, reason)
	}
}

// ReportCampaignCompleted reports campaign completion
func (pr *ProgressReporter) ReportCampaignCompleted(report *CampaignReport) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event":     "campaign_completed",
			"report":    report,
			"timestamp": time.Now(),
		})
		fmt.Println(string(data))
	default:
		pr.printTextSummary(report)
	}
}

// reportText outputs progress in plain text format
func (pr *ProgressReporter) reportText(state LiveCampaignState) {
	elapsed := state.Elapsed.Round(time.Second)
	fmt.Printf("[%s] %s | workers=%d rps=%.1f elapsed=%s\n",
		time.Now().Format("15:04:05"),
		state.State,
		state.WorkersActive,
		state.CurrentRPS,
		elapsed,
	)
	if state.Failed > 0 || state.TimedOut > 0 {
		fmt.Printf("  failed=%d timed_out=%d\n", state.Failed, state.TimedOut)
	}
}

// reportJSON outputs progress in JSON format
func (pr *ProgressReporter) reportJSON(state LiveCampaignState) {
	data, err := json.Marshal(state)
	if err != nil {
		pr.logger.Error("failed to marshal state", "error", err.Error())
		return
	}
	fmt.Println(string(data))
}

// printTextSummary prints a campaign summary in plain text format
func (pr *ProgressReporter) printTextSummary(report *CampaignReport) {
	status := string(report.Status)

	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("[CAMPAIGN SUMMARY] %s\n", strings.ToUpper(status))
	fmt.Printf("  Campaign ID:  %s\n", report.CampaignID)
	fmt.Printf("  Duration:     %s\n", report.Duration)
	fmt.Printf("  Total RPS:    %.2f\n", report.TotalRPS)
	fmt.Printf("  Elapsed:      %s\n", report.Elapsed)
	fmt.Printf("  Failed:       %d\n", report.Failed)
	fmt.Printf("  Timed out:    %d\n", report.TimedOut)
	fmt.Printf("  Workers:      %d\n", len(report.Workers))
	for _, w := range report.Workers {
		if w.Error != "" {
			fmt.Printf("    [%d] error: %s\n", w.Index, w.Error)
			continue
		}
		fmt.Printf("    [%d] rps=%.2f elapsed=%s failed=%d timed_out=%d\n",
			w.Index, w.RPS, w.Elapsed, w.Failed, w.TimedOut)
	}
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}
