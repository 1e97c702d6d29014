// Package dispatcher implements the Dispatcher (C5): a single-owner
// adapter between the Pacer and the asynchronous transport. It
// consumes Events from a bounded channel, forwards sends to the
// transport, and feeds correlated answers back on a per-iteration
// reply channel without blocking on individual responses.
package dispatcher

import (
	"context"
	"time"

	"github.com/jihwankim/diameter-load/pkg/diameter"
	"github.com/jihwankim/diameter-load/pkg/metrics"
	"github.com/jihwankim/diameter-load/pkg/reporting"
)

// Context carries the originating session's cursor through the
// SendMessage/reply round trip.
type Context struct {
	ScenarioID int
}

// Reply is what a spawned response task pushes back once an answer
// (or timeout) is observed. Ctx.ScenarioID is already advanced to the
// next scenario in the chain.
type Reply struct {
	Ctx    Context
	Answer *diameter.Message
	Err    error
}

// Event is the sum type the Dispatcher consumes: either send a
// message and route its eventual answer to ReplyTx, or stop.
type Event interface {
	isEvent()
}

// SendMessage asks the Dispatcher to forward Msg to the transport and
// push the eventual Reply onto ReplyTx.
type SendMessage struct {
	Ctx     Context
	Msg     *diameter.Message
	ReplyTx chan<- Reply
}

// Terminate stops the Dispatcher's event loop. Outstanding response
// tasks are not awaited; they are left to drop their replies.
type Terminate struct{}

func (SendMessage) isEvent() {}
func (Terminate) isEvent()   {}

// Dispatcher owns a transport exclusively and drains Events from its
// input channel until it sees Terminate.
type Dispatcher struct {
	transport   diameter.Client
	callTimeout time.Duration
	logger      *reporting.Logger
	metrics     *metrics.Registry
	events      chan Event
}

// New constructs a Dispatcher over transport. callTimeout bounds each
// individual answer future. metrics may be nil, in which case no
// counters are recorded.
func New(transport diameter.Client, callTimeout time.Duration, logger *reporting.Logger, reg *metrics.Registry) *Dispatcher {
	return &Dispatcher{
		transport:   transport,
		callTimeout: callTimeout,
		logger:      logger,
		metrics:     reg,
		events:      make(chan Event, 64),
	}
}

// Events returns the channel callers push Events onto.
func (d *Dispatcher) Events() chan<- Event { return d.events }

// Run drains events until Terminate or the channel is closed. It
// never blocks waiting for an individual response: each SendMessage
// spawns an independent goroutine that awaits its future.
func (d *Dispatcher) Run() {
	for ev := range d.events {
		switch e := ev.(type) {
		case SendMessage:
			d.handleSend(e)
		case Terminate:
			return
		}
	}
}

func (d *Dispatcher) handleSend(e SendMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), d.callTimeout)

	fut, err := d.transport.Send(ctx, e.Msg)
	if err != nil {
		cancel()
		if d.logger != nil {
			d.logger.Error("transport send failed", "error", err.Error())
		}
		if d.metrics != nil {
			d.metrics.TransactionsFailed.Inc()
		}
		// No reply is pushed; the Pacer observes this as a short count
		// or eventual timeout on its drain loop.
		return
	}
	if d.metrics != nil {
		d.metrics.RequestsSent.Inc()
	}

	go func() {
		defer cancel()
		answer, awaitErr := fut.Await(ctx)
		if awaitErr != nil {
			if d.logger != nil {
				d.logger.Warn("answer timed out", "scenario_id", e.Ctx.ScenarioID)
			}
			if d.metrics != nil {
				d.metrics.TransactionsTimedOut.Inc()
			}
		} else if d.metrics != nil {
			d.metrics.AnswersReceived.Inc()
		}
		e.ReplyTx <- Reply{
			Ctx:    Context{ScenarioID: e.Ctx.ScenarioID + 1},
			Answer: answer,
			Err:    awaitErr,
		}
	}()
}
