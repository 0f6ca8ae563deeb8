package logging

import (
	"context"
	stderrs "errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startFake(t *testing.T, eng *fakeEngine, opts ...Option) *Instance {
	t.Helper()
	opts = append([]Option{WithRegistry(&fakeRegistry{engine: eng}), Detached()}, opts...)
	inst, err := Start(context.Background(), NewConfiguration("svc"), opts...)
	require.NoError(t, err)
	return inst
}

func TestStart(t *testing.T) {
	t.Run("moves to running", func(t *testing.T) {
		inst := startFake(t, &fakeEngine{})

		assert.Equal(t, Running, inst.State())
		assert.Equal(t, "svc", inst.Metadata().ServiceName)
		_, err := uuid.Parse(inst.ID())
		assert.NoError(t, err)
	})

	t.Run("registry failure", func(t *testing.T) {
		reg := &fakeRegistry{runErr: stderrs.New("boom")}

		inst, err := Start(context.Background(), NewConfiguration("svc"), WithRegistry(reg))
		require.Error(t, err)
		assert.Nil(t, inst)
		assert.Nil(t, Active())
	})

	t.Run("traces start", func(t *testing.T) {
		buf := captureInternal(t)
		startFake(t, &fakeEngine{})
		assert.Contains(t, buf.String(), "Logging instance started.")
	})
}

func TestStart_SingleActiveInstance(t *testing.T) {
	first := &fakeEngine{}
	inst, err := Start(context.Background(), NewConfiguration("one"), WithRegistry(&fakeRegistry{engine: first}))
	require.NoError(t, err)
	t.Cleanup(func() { FlushAndShutdown(context.Background(), inst, time.Second, time.Second) })
	assert.Same(t, inst, Active())

	second := &fakeEngine{}
	_, err = Start(context.Background(), NewConfiguration("two"), WithRegistry(&fakeRegistry{engine: second}))
	require.ErrorIs(t, err, ErrAlreadyActive)
	assert.Equal(t, int32(1), second.shutdownCalls.Load(), "rejected engine is torn down")
	assert.Same(t, inst, Active())

	FlushAndShutdown(context.Background(), inst, time.Second, time.Second)
	assert.Nil(t, Active())
}

func TestStart_RejectedEngineTeardownIsTraced(t *testing.T) {
	inst, err := Start(context.Background(), NewConfiguration("one"), WithRegistry(&fakeRegistry{engine: &fakeEngine{}}))
	require.NoError(t, err)
	t.Cleanup(func() { FlushAndShutdown(context.Background(), inst, time.Second, time.Second) })

	buf := captureInternal(t)
	rejected := &fakeEngine{shutdownErr: stderrs.New("sink stuck")}
	_, err = Start(context.Background(), NewConfiguration("two"), WithRegistry(&fakeRegistry{engine: rejected}))

	require.ErrorIs(t, err, ErrAlreadyActive)
	assert.Equal(t, int32(1), rejected.shutdownCalls.Load())
	assert.Contains(t, buf.String(), errMsgDiscardFailed)
	assert.Contains(t, buf.String(), "sink stuck")
}

func TestStart_BoundInstanceIsRunningWhenVisible(t *testing.T) {
	for i := 0; i < 50; i++ {
		seen := make(chan ShutdownResult, 1)
		stop := make(chan struct{})
		go func() {
			for {
				select {
				case <-stop:
					seen <- ShutdownResult{AlreadyShutdown: true}
					return
				default:
				}
				if inst := Active(); inst != nil {
					ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					seen <- FlushAndShutdown(ctx, inst, time.Second, time.Second)
					cancel()
					return
				}
			}
		}()

		inst, err := Start(context.Background(), NewConfiguration("svc"), WithRegistry(&fakeRegistry{engine: &fakeEngine{}}))
		require.NoError(t, err)

		res := FlushAndShutdown(context.Background(), inst, time.Second, time.Second)
		close(stop)
		other := <-seen

		assert.NoError(t, res.ShutdownErr)
		assert.NoError(t, other.ShutdownErr, "a shutdown through Active() must not block")
		assert.Equal(t, Shutdown, inst.State())
		assert.Nil(t, Active())
	}
}

func TestFlushAndShutdown(t *testing.T) {
	t.Run("zero flush budget times out flush only", func(t *testing.T) {
		eng := &fakeEngine{flushDelay: 50 * time.Millisecond}
		inst := startFake(t, eng)

		res := FlushAndShutdown(context.Background(), inst, 0, 15*time.Second)

		assert.True(t, res.FlushTimedOut)
		assert.False(t, res.ShutdownTimedOut)
		assert.NoError(t, res.ShutdownErr)
		assert.False(t, res.AlreadyShutdown)
		assert.Equal(t, Shutdown, inst.State())
		assert.Equal(t, int32(1), eng.shutdownCalls.Load())
	})

	t.Run("shutdown timeout still ends in shutdown state", func(t *testing.T) {
		eng := &fakeEngine{shutdownDelay: time.Second}
		inst := startFake(t, eng)

		res := FlushAndShutdown(context.Background(), inst, time.Second, 20*time.Millisecond)

		assert.False(t, res.FlushTimedOut)
		assert.True(t, res.ShutdownTimedOut)
		assert.Equal(t, Shutdown, inst.State())
		assert.Less(t, res.Elapsed, time.Second)

		var partial *PartialShutdownTimeout
		require.ErrorAs(t, res.Err(), &partial)
		assert.True(t, partial.ShutdownTimedOut)
		assert.Contains(t, partial.Error(), "shutdown")
	})

	t.Run("clean shutdown", func(t *testing.T) {
		eng := &fakeEngine{}
		inst := startFake(t, eng)

		res := FlushAndShutdown(context.Background(), inst, time.Second, time.Second)

		assert.False(t, res.TimedOut())
		assert.NoError(t, res.Err())
		assert.Equal(t, int32(1), eng.flushCalls.Load())
	})

	t.Run("second call does not tear down again", func(t *testing.T) {
		eng := &fakeEngine{flushDelay: 50 * time.Millisecond}
		inst := startFake(t, eng)

		first := FlushAndShutdown(context.Background(), inst, 0, time.Second)
		second := FlushAndShutdown(context.Background(), inst, time.Second, time.Second)

		assert.False(t, first.AlreadyShutdown)
		assert.True(t, second.AlreadyShutdown)
		assert.True(t, second.FlushTimedOut, "later callers see the first outcome")
		assert.Equal(t, int32(1), eng.shutdownCalls.Load())
	})

	t.Run("concurrent calls are serialised", func(t *testing.T) {
		eng := &fakeEngine{shutdownDelay: 30 * time.Millisecond}
		inst := startFake(t, eng)

		const callers = 8
		results := make([]ShutdownResult, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = FlushAndShutdown(context.Background(), inst, time.Second, time.Second)
			}(i)
		}
		wg.Wait()

		owners := 0
		for _, r := range results {
			if !r.AlreadyShutdown {
				owners++
			}
		}
		assert.Equal(t, 1, owners)
		assert.Equal(t, int32(1), eng.shutdownCalls.Load())
		assert.Equal(t, Shutdown, inst.State())
	})

	t.Run("nil instance", func(t *testing.T) {
		res := FlushAndShutdown(context.Background(), nil, time.Second, time.Second)
		assert.True(t, res.AlreadyShutdown)
	})

	t.Run("traces start and completion", func(t *testing.T) {
		buf := captureInternal(t)
		inst := startFake(t, &fakeEngine{})

		FlushAndShutdown(context.Background(), inst, time.Second, time.Second)

		assert.Contains(t, buf.String(), "Shutting down logging instance.")
		assert.Contains(t, buf.String(), "Logging instance shut down.")
	})
}

func TestFlushAndShutdownAsync(t *testing.T) {
	eng := &fakeEngine{}
	inst := startFake(t, eng)

	select {
	case res := <-FlushAndShutdownAsync(context.Background(), inst, time.Second, time.Second):
		assert.False(t, res.TimedOut())
	case <-time.After(2 * time.Second):
		t.Fatal("async shutdown did not complete")
	}
	assert.Equal(t, Shutdown, inst.State())
}

func TestInstance_Flush(t *testing.T) {
	eng := &fakeEngine{flushDelay: 200 * time.Millisecond}
	inst := startFake(t, eng)

	res := inst.Flush(context.Background(), 10*time.Millisecond)
	assert.True(t, res.TimedOut)
	assert.NoError(t, res.Err)

	FlushAndShutdown(context.Background(), inst, 0, time.Second)
	assert.ErrorIs(t, inst.Flush(context.Background(), time.Second).Err, ErrEngineClosed)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unstarted", Unstarted.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "shutting_down", ShuttingDown.String())
	assert.Equal(t, "shutdown", Shutdown.String())
	assert.Equal(t, "state(9)", State(9).String())
}

func TestFlushAndShutdown_LocalRegistry(t *testing.T) {
	tgt, sink := memoryTarget("mem")
	conf := NewConfiguration("svc").AddTarget(tgt).AddRule(debugRule("mem"))
	inst, err := Start(context.Background(), conf, Detached())
	require.NoError(t, err)

	inst.Logger("app").InfoWith().Msg("last words")
	res := FlushAndShutdown(context.Background(), inst, DefaultFlushBudget, DefaultShutdownBudget)

	assert.False(t, res.TimedOut())
	assert.Len(t, sink.messages(), 1)
	assert.Equal(t, 1, sink.closeCount())
}
