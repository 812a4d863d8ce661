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

package execution

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bittoy/cascade/connection"
	"github.com/bittoy/cascade/types"
)

// NodeExecution is a running node: one component instance, the Environment
// it sees, and the worker(s) driving Process according to its Schedule.
// Built and owned by the controller package; callers interact with it only
// through Start and Stop.
type NodeExecution struct {
	index     types.NodeIndex
	def       types.ComponentDefinition
	component types.Component
	env       *Environment
	signal    *connection.Connection

	logger  types.Logger
	metrics types.MetricsRecorder

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	shutdown   int32
	workerDone []chan struct{}
}

// New builds a NodeExecution for the given node. signal is the private
// shutdown-signal connection — already included in env's fused input set —
// that Stop uses to wake Recv-parked workers one at a time.
func New(index types.NodeIndex, def types.ComponentDefinition, component types.Component, env *Environment, signal *connection.Connection, logger types.Logger, metrics types.MetricsRecorder) *NodeExecution {
	ctx, cancel := context.WithCancel(context.Background())
	ne := &NodeExecution{
		index:   index,
		def:     def,
		component: component,
		env:     env,
		signal:  signal,
		logger:  logger,
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
	}
	env.shutdown = &ne.shutdown
	return ne
}

// workerCount derives how many concurrent worker loops this node runs from
// its Schedule: exactly 1 for Interval, Concurrency for Unbounded.
func workerCount(sched types.Schedule) int {
	if sched.Kind == types.ScheduleUnbounded {
		if sched.Concurrency < 1 {
			return 1
		}
		return sched.Concurrency
	}
	return 1
}

// Start launches the node's worker loop(s) and returns immediately; workers
// run until Stop is called or Process returns ErrComponentShutdown. Any
// other error, ErrInputClosed included, is logged and the loop continues.
func (ne *NodeExecution) Start() {
	n := workerCount(ne.def.Schedule)
	ne.workerDone = make([]chan struct{}, n)
	group, ctx := errgroup.WithContext(ne.ctx)
	ne.group = group

	for i := 0; i < n; i++ {
		done := make(chan struct{})
		ne.workerDone[i] = done
		group.Go(func() error {
			defer close(done)
			if ne.def.Schedule.Kind == types.ScheduleInterval {
				ne.runInterval(ctx)
			} else {
				ne.runUnbounded(ctx)
			}
			return nil
		})
	}

	ne.metrics.NodeStarted(ne.def.ID, ne.def.TypeName)
}

// runInterval ticks once every PeriodMS, invoking Process at most once per
// tick. A missed tick — Process still running when the next tick fires —
// is simply dropped by time.Ticker's own semantics; this is the coalescing
// policy, not an omission.
func (ne *NodeExecution) runInterval(ctx context.Context) {
	period := time.Duration(ne.def.Schedule.PeriodMS) * time.Millisecond
	if period <= 0 {
		period = time.Duration(types.DefaultIntervalPeriodMS) * time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ne.invoke(ctx); errors.Is(err, types.ErrComponentShutdown) {
				return
			}
			if atomic.LoadInt32(&ne.shutdown) != 0 {
				return
			}
		}
	}
}

// runUnbounded invokes Process back-to-back with no inter-invocation delay,
// as one of Concurrency cooperating workers sharing one Environment.
func (ne *NodeExecution) runUnbounded(ctx context.Context) {
	for {
		if atomic.LoadInt32(&ne.shutdown) != 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := ne.invoke(ctx); errors.Is(err, types.ErrComponentShutdown) {
			return
		}
	}
}

func (ne *NodeExecution) invoke(ctx context.Context) error {
	start := time.Now()
	err := ne.component.Process(ctx, ne.env)
	ne.metrics.NodeInvocation(ne.def.ID, ne.def.TypeName, err == nil, time.Since(start).Seconds())
	if err != nil && !errors.Is(err, types.ErrComponentShutdown) {
		ne.logger.Printf("[%s:%s:%s] process error: %v", ne.def.ComponentType, ne.def.TypeName, ne.def.ID, err)
	}
	return err
}

// Stop cooperatively shuts the node down: it flips the shared shutdown
// flag and cancels the worker context (the cancellation every blocked Send
// observes immediately), then sends exactly one shutdown sentinel per
// worker into the signal connection, joining that worker's completion
// before sending the next — never a broadcast, so no signal is ever
// stranded waiting for a worker that already exited, and no worker is ever
// left unsignaled.
func (ne *NodeExecution) Stop(ctx context.Context) error {
	atomic.StoreInt32(&ne.shutdown, 1)
	ne.cancel()

	for _, done := range ne.workerDone {
		select {
		case <-done:
			// Already exited (e.g. via ctx cancellation unblocking a
			// parked Send) — nothing to signal.
			continue
		default:
		}
		if err := ne.signal.SendShutdown(); err != nil {
			// Signal connection already closed — the worker must have
			// exited through the cancelled context instead.
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	ne.metrics.NodeStopped(ne.def.ID, ne.def.TypeName)
	return ne.group.Wait()
}

// Index returns the NodeIndex this execution is bound to.
func (ne *NodeExecution) Index() types.NodeIndex { return ne.index }
