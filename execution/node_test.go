/*
 * Copyright 2025 The Cascade Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package execution_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittoy/cascade/connection"
	"github.com/bittoy/cascade/execution"
	"github.com/bittoy/cascade/metrics"
	"github.com/bittoy/cascade/types"
)

type countingComponent struct {
	invocations int64
	onProcess   func(ctx context.Context, env types.Environment) error
}

func (c *countingComponent) Process(ctx context.Context, env types.Environment) error {
	atomic.AddInt64(&c.invocations, 1)
	if c.onProcess != nil {
		return c.onProcess(ctx, env)
	}
	return nil
}

func newExecution(t *testing.T, sched types.Schedule, component types.Component, inputs []*connection.Connection, outputs map[string][]*connection.Connection) (*execution.NodeExecution, *connection.Connection) {
	t.Helper()
	signal := connection.New("signal", "signal", 1, nil)
	allInputs := append(append([]*connection.Connection{}, inputs...), signal)
	env := execution.NewEnvironment(allInputs, outputs, map[string]struct{}{types.DefaultConnectionName: {}}, nil)

	def := types.ComponentDefinition{ID: "n1", TypeName: "counting", Schedule: sched}
	ne := execution.New(0, def, component, env, signal, types.DefaultLogger(), metrics.New())
	return ne, signal
}

func TestIntervalInvokesRepeatedly(t *testing.T) {
	comp := &countingComponent{}
	sched := types.Schedule{Kind: types.ScheduleInterval, PeriodMS: 10}
	ne, _ := newExecution(t, sched, comp, nil, nil)

	ne.Start()
	time.Sleep(65 * time.Millisecond)
	require.NoError(t, ne.Stop(context.Background()))

	n := atomic.LoadInt64(&comp.invocations)
	assert.GreaterOrEqual(t, n, int64(3))
	assert.LessOrEqual(t, n, int64(10))
}

func TestUnboundedRunsConcurrentWorkers(t *testing.T) {
	var concurrent int64
	var maxSeen int64
	comp := &countingComponent{onProcess: func(ctx context.Context, env types.Environment) error {
		n := atomic.AddInt64(&concurrent, 1)
		for {
			old := atomic.LoadInt64(&maxSeen)
			if n <= old || atomic.CompareAndSwapInt64(&maxSeen, old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&concurrent, -1)
		return nil
	}}
	sched := types.Schedule{Kind: types.ScheduleUnbounded, Concurrency: 4}
	ne, _ := newExecution(t, sched, comp, nil, nil)

	ne.Start()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, ne.Stop(context.Background()))

	assert.GreaterOrEqual(t, atomic.LoadInt64(&maxSeen), int64(2))
}

func TestStopUnblocksRecvParkedWorker(t *testing.T) {
	comp := &countingComponent{onProcess: func(ctx context.Context, env types.Environment) error {
		_, err := env.Recv(ctx)
		return err
	}}
	sched := types.Schedule{Kind: types.ScheduleUnbounded, Concurrency: 2}
	ne, _ := newExecution(t, sched, comp, nil, nil)

	ne.Start()
	time.Sleep(10 * time.Millisecond) // let workers park in Recv

	stopped := make(chan error, 1)
	go func() { stopped <- ne.Stop(context.Background()) }()

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Stop did not unblock Recv-parked workers in time")
	}
}

func TestStopUnblocksSendParkedWorker(t *testing.T) {
	out := connection.New("out", types.DefaultConnectionName, 1, nil)
	// Fill the connection so the next Send blocks.
	require.NoError(t, out.Send(types.NewItem(nil, "", nil)))

	comp := &countingComponent{onProcess: func(ctx context.Context, env types.Environment) error {
		return env.SendDefault(ctx, types.NewItem(nil, "", nil))
	}}
	sched := types.Schedule{Kind: types.ScheduleUnbounded, Concurrency: 1}
	outputs := map[string][]*connection.Connection{types.DefaultConnectionName: {out}}
	ne, _ := newExecution(t, sched, comp, nil, outputs)

	ne.Start()
	time.Sleep(10 * time.Millisecond) // let the worker park in Send

	stopped := make(chan error, 1)
	go func() { stopped <- ne.Stop(context.Background()) }()

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Stop did not unblock Send-parked worker in time")
	}
}
