package dispatcher_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jihwankim/diameter-load/pkg/diameter"
	"github.com/jihwankim/diameter-load/pkg/dispatcher"
	"github.com/jihwankim/diameter-load/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_SendMessageRoundTrip(t *testing.T) {
	transport := diameter.NewLoopback(0)
	d := dispatcher.New(transport, time.Second, nil, nil)
	go d.Run()

	replyCh := make(chan dispatcher.Reply, 1)
	msg := diameter.NewBuilder(272, 4, 1).Build()

	d.Events() <- dispatcher.SendMessage{Ctx: dispatcher.Context{ScenarioID: 0}, Msg: msg, ReplyTx: replyCh}

	select {
	case reply := <-replyCh:
		require.NoError(t, reply.Err)
		require.NotNil(t, reply.Answer)
		assert.Equal(t, 1, reply.Ctx.ScenarioID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reply")
	}

	d.Events() <- dispatcher.Terminate{}
}

func TestDispatcher_AnswerTimeoutStillRepliesWithError(t *testing.T) {
	transport := diameter.NewLoopback(50 * time.Millisecond)
	d := dispatcher.New(transport, 5*time.Millisecond, nil, nil)
	go d.Run()

	replyCh := make(chan dispatcher.Reply, 1)
	msg := diameter.NewBuilder(272, 4, 1).Build()
	d.Events() <- dispatcher.SendMessage{Ctx: dispatcher.Context{ScenarioID: 2}, Msg: msg, ReplyTx: replyCh}

	select {
	case reply := <-replyCh:
		require.Error(t, reply.Err)
		assert.Nil(t, reply.Answer)
		// scenario_id still advances on timeout to keep the chain draining.
		assert.Equal(t, 3, reply.Ctx.ScenarioID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reply")
	}

	d.Events() <- dispatcher.Terminate{}
}

func TestDispatcher_SendFailureDropsSilently(t *testing.T) {
	transport := diameter.NewLoopback(0)
	require.NoError(t, transport.Close())

	d := dispatcher.New(transport, time.Second, nil, nil)
	go d.Run()

	replyCh := make(chan dispatcher.Reply, 1)
	msg := diameter.NewBuilder(272, 4, 1).Build()
	d.Events() <- dispatcher.SendMessage{Ctx: dispatcher.Context{ScenarioID: 0}, Msg: msg, ReplyTx: replyCh}

	select {
	case reply := <-replyCh:
		t.Fatalf("expected no reply after send failure, got %+v", reply)
	case <-time.After(100 * time.Millisecond):
		// expected: no reply is ever pushed
	}

	d.Events() <- dispatcher.Terminate{}
}

func TestDispatcher_RecordsMetricsOnSendAndAnswer(t *testing.T) {
	transport := diameter.NewLoopback(0)
	reg := metrics.New()
	d := dispatcher.New(transport, time.Second, nil, reg)
	go d.Run()

	replyCh := make(chan dispatcher.Reply, 1)
	msg := diameter.NewBuilder(272, 4, 1).Build()
	d.Events() <- dispatcher.SendMessage{Ctx: dispatcher.Context{ScenarioID: 0}, Msg: msg, ReplyTx: replyCh}

	select {
	case reply := <-replyCh:
		require.NoError(t, reply.Err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reply")
	}
	d.Events() <- dispatcher.Terminate{}

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, req)
	body := rec.Body.String()
	assert.Contains(t, body, "diameter_load_requests_sent_total 1")
	assert.Contains(t, body, "diameter_load_answers_received_total 1")
}

func TestDispatcher_RecordsMetricsOnSendFailure(t *testing.T) {
	transport := diameter.NewLoopback(0)
	require.NoError(t, transport.Close())

	reg := metrics.New()
	d := dispatcher.New(transport, time.Second, nil, reg)
	go d.Run()

	replyCh := make(chan dispatcher.Reply, 1)
	msg := diameter.NewBuilder(272, 4, 1).Build()
	d.Events() <- dispatcher.SendMessage{Ctx: dispatcher.Context{ScenarioID: 0}, Msg: msg, ReplyTx: replyCh}

	select {
	case <-replyCh:
		t.Fatal("expected no reply after send failure")
	case <-time.After(100 * time.Millisecond):
	}
	d.Events() <- dispatcher.Terminate{}

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "diameter_load_transactions_failed_total 1")
}

func TestDispatcher_TerminateStopsLoop(t *testing.T) {
	transport := diameter.NewLoopback(0)
	d := dispatcher.New(transport, time.Second, nil, nil)

	done := make(chan struct{})
	go func() {
		d.Run()
		close(done)
	}()

	d.Events() <- dispatcher.Terminate{}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Terminate")
	}
}
