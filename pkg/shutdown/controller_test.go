package shutdown_test

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/jihwankim/diameter-load/pkg/shutdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_ParentCancelStopsWatchWithoutTrigger(t *testing.T) {
	parent, parentCancel := context.WithCancel(context.Background())
	ctrl := shutdown.New(nil)

	ctx, cancel := ctrl.Watch(parent)
	defer cancel()

	parentCancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("derived context was not cancelled after parent cancel")
	}

	assert.False(t, ctrl.IsTriggered(), "parent cancellation alone must not count as a shutdown trigger")
}

func TestController_SIGTERMTriggersCancelAndCallbacks(t *testing.T) {
	ctrl := shutdown.New(nil)
	var calls int32
	ctrl.OnShutdown(func() { atomic.AddInt32(&calls, 1) })

	ctx, cancel := ctrl.Watch(context.Background())
	defer cancel()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled after SIGTERM")
	}

	assert.True(t, ctrl.IsTriggered())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	select {
	case <-ctrl.StopChannel():
	default:
		t.Fatal("stop channel should be closed after trigger")
	}

	// A callback registered after the trigger must never run.
	ctrl.OnShutdown(func() { atomic.AddInt32(&calls, 1) })
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestController_StopChannelNotClosedBeforeTrigger(t *testing.T) {
	ctrl := shutdown.New(nil)
	select {
	case <-ctrl.StopChannel():
		t.Fatal("stop channel closed before any trigger")
	default:
	}
	assert.False(t, ctrl.IsTriggered())
}
