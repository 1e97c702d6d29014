package engine_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jihwankim/diameter-load/pkg/diameter"
	"github.com/jihwankim/diameter-load/pkg/engine"
	"github.com/jihwankim/diameter-load/pkg/metrics"
	"github.com/jihwankim/diameter-load/pkg/scenario"
	"github.com/jihwankim/diameter-load/pkg/template"
	"github.com/jihwankim/diameter-load/pkg/variable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildWorkerScenarios constructs a fresh, independent pair of
// scenarios per call. It must not be invoked from a goroutine other
// than the test's own, since a build failure here is a setup bug
// (caught via require), not a worker outcome under test.
func buildWorkerScenarios(t *testing.T) (init []*scenario.Scenario, repeating []*scenario.Scenario) {
	t.Helper()
	reg, err := variable.Build([]variable.Spec{
		{Name: "COUNTER", Kind: variable.KindIncrementalCounter, Min: 1, Max: 1000, Step: 1},
	})
	require.NoError(t, err)
	dict := diameter.DefaultDictionary()

	initScenario, err := scenario.Build(scenario.Config{
		Name:        "init",
		Kind:        scenario.KindInit,
		Command:     "Credit-Control",
		Application: "Credit-Control",
		Attributes: []scenario.AttributeConfig{
			{Name: "Session-Id", Value: template.ScalarNode{Value: "ses;${COUNTER}"}},
		},
	}, reg, dict)
	require.NoError(t, err)

	update, err := scenario.Build(scenario.Config{
		Name:        "update",
		Kind:        scenario.KindRepeating,
		Command:     "Credit-Control",
		Application: "Credit-Control",
		Attributes: []scenario.AttributeConfig{
			{Name: "Session-Id", Value: template.ScalarNode{Value: "ses;${COUNTER}"}},
		},
	}, reg, dict)
	require.NoError(t, err)

	return []*scenario.Scenario{initScenario}, []*scenario.Scenario{update}
}

func TestRun_SumsThroughputAcrossWorkers(t *testing.T) {
	cfg := engine.Config{
		Parallel:    2,
		TargetRPS:   200,
		Duration:    50 * time.Millisecond,
		CallTimeout: time.Second,
	}

	type built struct {
		init, repeating []*scenario.Scenario
	}
	perWorker := make([]built, cfg.Parallel)
	for i := range perWorker {
		init, repeating := buildWorkerScenarios(t)
		perWorker[i] = built{init: init, repeating: repeating}
	}

	factory := func(ctx context.Context, idx int) (diameter.Client, []*scenario.Scenario, []*scenario.Scenario, error) {
		return diameter.NewLoopback(0), perWorker[idx].init, perWorker[idx].repeating, nil
	}

	report := engine.Run(context.Background(), cfg, 1, factory)
	require.Len(t, report.WorkerReports, 2)
	for _, w := range report.WorkerReports {
		assert.NoError(t, w.Err)
	}
	assert.Greater(t, report.TotalRPS, 0.0)
}

func TestRun_RecordsWorkersActiveAndCurrentRPS(t *testing.T) {
	reg := metrics.New()
	cfg := engine.Config{
		Parallel:    2,
		TargetRPS:   200,
		Duration:    50 * time.Millisecond,
		CallTimeout: time.Second,
		Metrics:     reg,
	}

	type built struct {
		init, repeating []*scenario.Scenario
	}
	perWorker := make([]built, cfg.Parallel)
	for i := range perWorker {
		init, repeating := buildWorkerScenarios(t)
		perWorker[i] = built{init: init, repeating: repeating}
	}

	factory := func(ctx context.Context, idx int) (diameter.Client, []*scenario.Scenario, []*scenario.Scenario, error) {
		return diameter.NewLoopback(0), perWorker[idx].init, perWorker[idx].repeating, nil
	}

	result := engine.Run(context.Background(), cfg, 1, factory)
	require.Greater(t, result.TotalRPS, 0.0)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, req)
	body := rec.Body.String()
	assert.Contains(t, body, "diameter_load_workers_active 0", "gauge must settle back to 0 once every worker has returned")
	assert.NotContains(t, body, "diameter_load_current_rps 0\n")
}

func TestRun_WorkerConnectFailureDoesNotAbortOthers(t *testing.T) {
	cfg := engine.Config{
		Parallel:    2,
		TargetRPS:   200,
		Duration:    50 * time.Millisecond,
		CallTimeout: time.Second,
	}

	init, repeating := buildWorkerScenarios(t)

	factory := func(ctx context.Context, idx int) (diameter.Client, []*scenario.Scenario, []*scenario.Scenario, error) {
		if idx == 0 {
			return nil, nil, nil, &diameter.TransportError{Op: "connect", Reason: "refused"}
		}
		return diameter.NewLoopback(0), init, repeating, nil
	}

	report := engine.Run(context.Background(), cfg, 1, factory)
	require.Len(t, report.WorkerReports, 2)

	var sawErr, sawOK bool
	for _, w := range report.WorkerReports {
		if w.Err != nil {
			sawErr = true
		} else {
			sawOK = true
		}
	}
	assert.True(t, sawErr)
	assert.True(t, sawOK)
	assert.Greater(t, report.TotalRPS, 0.0)
}
