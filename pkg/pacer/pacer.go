// Package pacer implements the Pacer (C4): derives rate-control
// parameters from campaign configuration, drives the ticking batch
// loop, and orchestrates the per-session Repeating scenario chain
// over a Dispatcher.
package pacer

import (
	"context"
	"math"
	"time"

	"github.com/jihwankim/diameter-load/pkg/dispatcher"
	"github.com/jihwankim/diameter-load/pkg/metrics"
	"github.com/jihwankim/diameter-load/pkg/reporting"
	"github.com/jihwankim/diameter-load/pkg/scenario"
)

// RunParameters are derived once from configuration at worker start.
type RunParameters struct {
	TargetTPS      int64
	BatchSize      int64
	TickInterval   time.Duration
	TotalRequests  int64
	TotalIterations int64
	ScenarioCount  int64
}

// DeriveRunParameters computes RunParameters from the campaign's
// target aggregate rate, duration, and the number of Repeating
// scenarios in the chain.
func DeriveRunParameters(targetRPS int64, duration time.Duration, repeatingScenarioCount int64) RunParameters {
	sPrime := repeatingScenarioCount
	if sPrime < 1 {
		sPrime = 1
	}

	targetTPS := targetRPS / sPrime
	if targetTPS < 1 {
		targetTPS = 1
	}

	batchSize := targetTPS / 200
	if batchSize < 1 {
		batchSize = 1
	}

	batchesPerSecond := float64(targetTPS) / float64(batchSize)
	tickInterval := time.Duration(float64(time.Second) / batchesPerSecond)

	durationSeconds := duration.Seconds()
	totalRequests := int64(float64(targetRPS) * durationSeconds)

	totalIterations := int64(math.Ceil(float64(totalRequests) / float64(batchSize) / float64(sPrime)))

	return RunParameters{
		TargetTPS:       targetTPS,
		BatchSize:       batchSize,
		TickInterval:    tickInterval,
		TotalRequests:   totalRequests,
		TotalIterations: totalIterations,
		ScenarioCount:   repeatingScenarioCount,
	}
}

// Report is the per-worker outcome the Aggregator collects.
type Report struct {
	RPS     float64
	Elapsed time.Duration
	Failed  int64
	TimedOut int64
}

// Pacer drives one worker's init handshake, then its timed batch
// loop, over one Dispatcher.
type Pacer struct {
	params      RunParameters
	callTimeout time.Duration
	dispatcher  *dispatcher.Dispatcher
	logger      *reporting.Logger
	metrics     *metrics.Registry
}

// New constructs a Pacer bound to a running Dispatcher. reg may be
// nil, in which case no counters are recorded.
func New(params RunParameters, callTimeout time.Duration, d *dispatcher.Dispatcher, logger *reporting.Logger, reg *metrics.Registry) *Pacer {
	return &Pacer{params: params, callTimeout: callTimeout, dispatcher: d, logger: logger, metrics: reg}
}

// RunInit executes every Init scenario once, sequentially, awaiting
// each answer before proceeding. Failure to obtain a response is
// fatal for the worker. ctx cancellation aborts before the next Init
// scenario is sent.
func (p *Pacer) RunInit(ctx context.Context, initScenarios []*scenario.Scenario) error {
	for _, s := range initScenarios {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := s.NextMessage()
		if err != nil {
			return err
		}

		replyTx := make(chan dispatcher.Reply, 1)
		p.dispatcher.Events() <- dispatcher.SendMessage{
			Ctx:     dispatcher.Context{ScenarioID: 0},
			Msg:     msg,
			ReplyTx: replyTx,
		}

		select {
		case reply := <-replyTx:
			if reply.Err != nil {
				return reply.Err
			}
		case <-time.After(p.callTimeout):
			return &TimeoutError{Scenario: s.Name()}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// TimeoutError reports that an Init scenario's answer never arrived
// within call_timeout.
type TimeoutError struct {
	Scenario string
}

func (e *TimeoutError) Error() string {
	return "timeout: init scenario " + e.Scenario + " did not answer in time"
}

// session is one in-flight chain slot, tracking which Repeating
// scenario it is currently on.
type session struct {
	scenarioID int
}

// Run executes the timed batch loop against the Repeating chain and
// returns the aggregate throughput report. If scenarios is empty (S=0)
// no Repeating phase executes; RPS is reported as 0.
//
// ctx cancellation stops pacing before the next tick; the report still
// reflects throughput over whatever partial run already happened
// (requests handed to the Dispatcher so far over the elapsed time). A
// ValueParseError from a scenario's NextMessage aborts the worker: it
// is returned immediately alongside the report computed so far.
func (p *Pacer) Run(ctx context.Context, scenarios []*scenario.Scenario) (Report, error) {
	start := time.Now()

	if len(scenarios) == 0 || p.params.TotalIterations == 0 {
		return Report{RPS: 0, Elapsed: time.Since(start)}, nil
	}

	ticker := time.NewTicker(p.params.TickInterval)
	defer ticker.Stop()

	sPrime := int(p.params.ScenarioCount)
	if sPrime < 1 {
		sPrime = 1
	}

	var failed, timedOut, sent int64

	partial := func(requests int64) Report {
		elapsed := time.Since(start)
		return Report{RPS: float64(requests) / elapsed.Seconds(), Elapsed: elapsed, Failed: failed, TimedOut: timedOut}
	}

	for i := int64(0); i < p.params.TotalIterations; i++ {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			p.dispatcher.Events() <- dispatcher.Terminate{}
			return partial(sent), nil
		}

		expectedReplies := int(p.params.BatchSize) * sPrime
		replyTx := make(chan dispatcher.Reply, expectedReplies)

		for j := int64(0); j < p.params.BatchSize; j++ {
			msg, err := scenarios[0].NextMessage()
			if err != nil {
				failed++
				if p.logger != nil {
					p.logger.Error("value parse error building message", "scenario", scenarios[0].Name(), "error", err.Error())
				}
				if p.metrics != nil {
					p.metrics.TransactionsFailed.Inc()
				}
				p.dispatcher.Events() <- dispatcher.Terminate{}
				return partial(sent), err
			}
			p.dispatcher.Events() <- dispatcher.SendMessage{
				Ctx:     dispatcher.Context{ScenarioID: 0},
				Msg:     msg,
				ReplyTx: replyTx,
			}
			sent++
		}

		for k := 0; k < expectedReplies; k++ {
			select {
			case reply := <-replyTx:
				if reply.Err != nil {
					timedOut++
					if p.logger != nil {
						p.logger.Warn("transaction timed out", "scenario_id", reply.Ctx.ScenarioID-1)
					}
				}
				nextID := reply.Ctx.ScenarioID
				if nextID < sPrime {
					nextMsg, err := scenarios[nextID].NextMessage()
					if err != nil {
						failed++
						if p.logger != nil {
							p.logger.Error("value parse error building message", "scenario", scenarios[nextID].Name(), "error", err.Error())
						}
						if p.metrics != nil {
							p.metrics.TransactionsFailed.Inc()
						}
						p.dispatcher.Events() <- dispatcher.Terminate{}
						return partial(sent), err
					}
					p.dispatcher.Events() <- dispatcher.SendMessage{
						Ctx:     dispatcher.Context{ScenarioID: nextID},
						Msg:     nextMsg,
						ReplyTx: replyTx,
					}
					sent++
				}
			case <-time.After(2 * p.callTimeout):
				// The Dispatcher always pushes a Reply once its own
				// future resolves. This only fires when the send
				// itself failed silently and no Reply is coming.
				failed++
			case <-ctx.Done():
				p.dispatcher.Events() <- dispatcher.Terminate{}
				return partial(sent), nil
			}
		}
	}

	p.dispatcher.Events() <- dispatcher.Terminate{}

	return partial(p.params.TotalRequests), nil
}
