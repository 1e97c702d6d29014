package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jihwankim/diameter-load/pkg/config"
	"github.com/jihwankim/diameter-load/pkg/diameter"
	"github.com/jihwankim/diameter-load/pkg/engine"
	"github.com/jihwankim/diameter-load/pkg/metrics"
	"github.com/jihwankim/diameter-load/pkg/reporting"
	"github.com/jihwankim/diameter-load/pkg/scenario"
	"github.com/jihwankim/diameter-load/pkg/shutdown"
	"github.com/jihwankim/diameter-load/pkg/variable"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Execute a load campaign",
	Long:  `Loads a campaign YAML file and drives Diameter traffic against a peer.`,
	RunE:  runCampaign,
}

func init() {
	runCmd.Flags().StringArray("set", []string{}, "override campaign values (e.g., --set duration=10m)")
	runCmd.Flags().String("address", "", "peer address (host:port); empty drives an in-process loopback peer")
	runCmd.Flags().String("format", "text", "output format (text, json)")
	runCmd.Flags().Bool("dry-run", false, "resolve the campaign against its dictionary without executing")
}

func runCampaign(cmd *cobra.Command, args []string) error {
	setFlags, _ := cmd.Flags().GetStringArray("set")
	address, _ := cmd.Flags().GetString("address")
	outputFormat, _ := cmd.Flags().GetString("format")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(setFlags) > 0 {
		if err := applyOverrides(cfg, parseSetFlags(setFlags)); err != nil {
			return fmt.Errorf("failed to apply overrides: %w", err)
		}
	}
	if address != "" {
		cfg.Address = address
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logLevel := reporting.LogLevel(cfg.Logging.Level)
	if verbose {
		logLevel = reporting.LogLevelDebug
	}
	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormat(cfg.Logging.Format),
		Output: os.Stdout,
	})

	logger.Info("diameter-load starting", "version", version)

	dict, err := diameter.LoadDictionaries(cfg.Dictionaries)
	if err != nil {
		return fmt.Errorf("failed to load dictionaries: %w", err)
	}

	// Validate the campaign resolves against the dictionary using a
	// throwaway registry before committing to any worker.
	probeRegistry, err := variable.Build(cfg.VariableSpecs())
	if err != nil {
		return fmt.Errorf("failed to build variable registry: %w", err)
	}
	initScenarios, repeatingScenarios, err := config.BuildScenarios(cfg.Scenarios, probeRegistry, dict)
	if err != nil {
		return fmt.Errorf("failed to resolve scenarios: %w", err)
	}
	logger.Info("campaign resolved", "init_scenarios", len(initScenarios), "repeating_scenarios", len(repeatingScenarios))

	if dryRun {
		fmt.Println("campaign is valid (dry-run mode)")
		return nil
	}

	// The registry is always constructed so that per-campaign counters
	// are live even when no one is scraping /metrics; serving the HTTP
	// endpoint is the only thing gated on cfg.Metrics.Enabled.
	reg := metrics.New()
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(cfg.Metrics.Address, reg); err != nil {
				logger.Error("metrics server stopped", "error", err.Error())
			}
		}()
		logger.Info("metrics endpoint listening", "address", cfg.Metrics.Address)
	}

	ctrl := shutdown.New(logger)
	ctx, cancel := ctrl.Watch(context.Background())
	defer cancel()

	campaignID := uuid.NewString()
	startTime := time.Now()

	factory := func(ctx context.Context, workerIndex int) (diameter.Client, []*scenario.Scenario, []*scenario.Scenario, error) {
		registry, err := variable.Build(cfg.VariableSpecs())
		if err != nil {
			return nil, nil, nil, err
		}
		init, repeating, err := config.BuildScenarios(cfg.Scenarios, registry, dict)
		if err != nil {
			return nil, nil, nil, err
		}

		var transport diameter.Client
		if cfg.Address == "" {
			transport = diameter.NewLoopback(0)
		} else {
			transport, err = diameter.DialTCP(ctx, cfg.Address)
			if err != nil {
				return nil, nil, nil, err
			}
		}
		return transport, init, repeating, nil
	}

	engineCfg := engine.Config{
		Parallel:    cfg.Parallel,
		TargetRPS:   cfg.CallRate,
		Duration:    cfg.Duration,
		CallTimeout: cfg.CallTimeout,
		Logger:      logger,
		Metrics:     reg,
	}

	logger.Info("campaign starting", "campaign_id", campaignID, "parallel", cfg.Parallel, "call_rate", cfg.CallRate)
	result := engine.Run(ctx, engineCfg, int64(len(repeatingScenarios)), factory)
	endTime := time.Now()

	status := reporting.StatusCompleted
	if ctrl.IsTriggered() {
		status = reporting.StatusStopped
	}

	workers := make([]reporting.WorkerReport, len(result.WorkerReports))
	var errs []string
	for i, w := range result.WorkerReports {
		wr := reporting.WorkerReport{
			Index:    w.Index,
			RPS:      w.Report.RPS,
			Elapsed:  w.Report.Elapsed.String(),
			Failed:   w.Report.Failed,
			TimedOut: w.Report.TimedOut,
		}
		if w.Err != nil {
			wr.Error = w.Err.Error()
			errs = append(errs, fmt.Sprintf("worker %d: %s", w.Index, w.Err.Error()))
		}
		workers[i] = wr
	}

	report := &reporting.CampaignReport{
		CampaignID: campaignID,
		StartTime:  startTime,
		EndTime:    endTime,
		Duration:   cfg.Duration.String(),
		Status:     status,
		TotalRPS:   result.TotalRPS,
		Elapsed:    result.Elapsed.String(),
		Failed:     result.Failed,
		TimedOut:   result.TimedOut,
		Workers:    workers,
		Errors:     errs,
	}

	storage, err := reporting.NewStorage(cfg.Reporting.OutputDir, cfg.Reporting.KeepLastN, logger)
	if err != nil {
		return fmt.Errorf("failed to create report storage: %w", err)
	}
	if _, err := storage.SaveReport(report); err != nil {
		logger.Warn("failed to save report", "error", err.Error())
	}

	progressReporter := reporting.NewProgressReporter(reporting.OutputFormat(outputFormat), logger)
	progressReporter.ReportCampaignCompleted(report)

	formatter := reporting.NewFormatter(logger)
	for _, format := range []reporting.ReportFormat{reporting.ReportFormatText, reporting.ReportFormatHTML} {
		path := reporting.GetReportPath(report, format, cfg.Reporting.OutputDir)
		if err := formatter.GenerateReport(report, format, path); err != nil {
			logger.Warn("failed to generate report", "format", format, "error", err.Error())
		}
	}

	logger.Info("campaign completed", "total_rps", result.TotalRPS, "failed", result.Failed, "timed_out", result.TimedOut)
	return nil
}

// parseSetFlags parses --set flags into a map.
func parseSetFlags(setFlags []string) map[string]string {
	overrides := make(map[string]string)
	for _, flag := range setFlags {
		parts := strings.SplitN(flag, "=", 2)
		if len(parts) == 2 {
			overrides[parts[0]] = parts[1]
		}
	}
	return overrides
}

// applyOverrides applies --set key=value pairs onto the campaign's
// top-level scalar fields.
func applyOverrides(cfg *config.Config, overrides map[string]string) error {
	for key, value := range overrides {
		switch key {
		case "parallel":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("parallel: %w", err)
			}
			cfg.Parallel = n
		case "call_rate":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("call_rate: %w", err)
			}
			cfg.CallRate = n
		case "call_timeout":
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("call_timeout: %w", err)
			}
			cfg.CallTimeout = d
		case "duration":
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("duration: %w", err)
			}
			cfg.Duration = d
		case "log_requests":
			cfg.LogRequests = value == "true"
		case "log_responses":
			cfg.LogResponses = value == "true"
		case "protocol":
			cfg.Protocol = value
		case "address":
			cfg.Address = value
		default:
			return fmt.Errorf("unknown override key %q", key)
		}
	}
	return nil
}
