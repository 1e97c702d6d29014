// Package engine implements the Worker Pool Aggregator (C6): it
// spawns N independent Pacer+Dispatcher engines in parallel, each
// owning its own transport, Variable Registry, and Dictionary handle,
// and sums per-engine throughput into a final campaign report.
package engine

import (
	"context"
	"time"

	"github.com/jihwankim/diameter-load/pkg/diameter"
	"github.com/jihwankim/diameter-load/pkg/dispatcher"
	"github.com/jihwankim/diameter-load/pkg/metrics"
	"github.com/jihwankim/diameter-load/pkg/pacer"
	"github.com/jihwankim/diameter-load/pkg/reporting"
	"github.com/jihwankim/diameter-load/pkg/scenario"
)

// WorkerFactory builds the per-worker collaborators an Engine needs:
// a fresh transport, the init scenarios, and the repeating chain. Each
// worker gets its own instances per the shared-resource policy —
// nothing mutable is shared across workers.
type WorkerFactory func(ctx context.Context, workerIndex int) (transport diameter.Client, init []*scenario.Scenario, repeating []*scenario.Scenario, err error)

// Config bundles the parameters shared by every worker in the pool.
// Metrics may be nil, in which case no counters or gauges are recorded.
type Config struct {
	Parallel     int
	TargetRPS    int64
	Duration     time.Duration
	CallTimeout  time.Duration
	Logger       *reporting.Logger
	Metrics      *metrics.Registry
}

// WorkerOutcome is one worker's final report, tagged with its index
// for diagnostics.
type WorkerOutcome struct {
	Index  int
	Report pacer.Report
	Err    error
}

// CampaignReport is the Aggregator's final output: total_rps is the
// sum of every surviving worker's rps, elapsed is the max elapsed
// across workers.
type CampaignReport struct {
	TotalRPS      float64
	Elapsed       time.Duration
	Failed        int64
	TimedOut      int64
	WorkerReports []WorkerOutcome
}

// Run spawns cfg.Parallel workers built by factory and blocks until
// every worker has either returned a report or failed to connect. A
// worker's connect failure aborts only that worker; surviving workers'
// reports still contribute to the final CampaignReport.
func Run(ctx context.Context, cfg Config, repeatingScenarioCount int64, factory WorkerFactory) CampaignReport {
	results := make(chan WorkerOutcome, cfg.Parallel)

	for i := 0; i < cfg.Parallel; i++ {
		go func(idx int) {
			if cfg.Metrics != nil {
				cfg.Metrics.WorkersActive.Inc()
			}
			outcome := runWorker(ctx, cfg, repeatingScenarioCount, factory, idx)
			if cfg.Metrics != nil {
				// Decrement before publishing the outcome so a reader
				// that observes this worker's result also observes the
				// gauge already settled back down.
				cfg.Metrics.WorkersActive.Dec()
			}
			results <- outcome
		}(i)
	}

	var (
		outcomes      []WorkerOutcome
		totalRPS      float64
		maxElapsed    time.Duration
		failed        int64
		timedOut      int64
	)

	for i := 0; i < cfg.Parallel; i++ {
		outcome := <-results
		outcomes = append(outcomes, outcome)
		if outcome.Err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Error("worker failed", "worker", outcome.Index, "error", outcome.Err.Error())
			}
			continue
		}
		totalRPS += outcome.Report.RPS
		if outcome.Report.Elapsed > maxElapsed {
			maxElapsed = outcome.Report.Elapsed
		}
		failed += outcome.Report.Failed
		timedOut += outcome.Report.TimedOut
	}

	if cfg.Metrics != nil {
		cfg.Metrics.CurrentRPS.Set(totalRPS)
	}

	return CampaignReport{
		TotalRPS:      totalRPS,
		Elapsed:       maxElapsed,
		Failed:        failed,
		TimedOut:      timedOut,
		WorkerReports: outcomes,
	}
}

func runWorker(ctx context.Context, cfg Config, repeatingScenarioCount int64, factory WorkerFactory, idx int) WorkerOutcome {
	transport, initScenarios, repeatingScenarios, err := factory(ctx, idx)
	if err != nil {
		return WorkerOutcome{Index: idx, Err: err}
	}
	defer transport.Close()

	d := dispatcher.New(transport, cfg.CallTimeout, cfg.Logger, cfg.Metrics)
	go d.Run()

	params := pacer.DeriveRunParameters(cfg.TargetRPS, cfg.Duration, repeatingScenarioCount)
	p := pacer.New(params, cfg.CallTimeout, d, cfg.Logger, cfg.Metrics)

	if err := p.RunInit(ctx, initScenarios); err != nil {
		return WorkerOutcome{Index: idx, Err: err}
	}

	report, err := p.Run(ctx, repeatingScenarios)
	if err != nil {
		return WorkerOutcome{Index: idx, Report: report, Err: err}
	}
	return WorkerOutcome{Index: idx, Report: report}
}
