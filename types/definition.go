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

package types

import "encoding/json"

// NodeIndex and EdgeIndex are stable handles into the graph. They must
// never be reused for a different node/edge while any live reference
// (an Execution record, in particular) still points at the old one.
//
// NodeIndex 和 EdgeIndex 是图中的稳定句柄。只要还有任何存活的引用（尤其是
// Execution 记录）指向旧的索引，就绝不能将其重新分配给不同的节点/边。
type NodeIndex int64
type EdgeIndex int64

// ComponentType distinguishes the two node roles the scheduler understands.
// The runtime does not otherwise enforce the distinction: a Processor is
// free to call send without ever calling recv, and vice versa.
type ComponentType string

const (
	Producer  ComponentType = "Producer"
	Processor ComponentType = "Processor"
)

// DefaultConnectionName is the soft-contract output/input name most
// components read and write by convention. Sending to an absent name that
// equals DefaultConnectionName (or any other ignored name) is not an error;
// see Environment.Send.
const DefaultConnectionName = "default"

// DefaultMaxItems is the connection capacity used when a ConnectionDefinition
// does not specify one.
const DefaultMaxItems = 1000

// DefaultIntervalPeriodMS is the tick period used when a ComponentDefinition
// does not specify a Schedule.
const DefaultIntervalPeriodMS = 500

// ScheduleKind tags which Schedule variant is in use.
type ScheduleKind string

const (
	ScheduleInterval  ScheduleKind = "Interval"
	ScheduleUnbounded ScheduleKind = "Unbounded"
)

// Schedule is a tagged union governing how often a node's component is
// invoked. Exactly one of PeriodMS (for Interval) or Concurrency (for
// Unbounded) is meaningful, selected by Kind.
//
// Schedule 是一个标签联合体，控制节点组件被调用的频率。Kind 选择
// PeriodMS（用于 Interval）或 Concurrency（用于 Unbounded）中唯一有意义
// 的那个。
type Schedule struct {
	Kind ScheduleKind `json:"type"`
	// PeriodMS is the fixed wall-clock tick period for Interval schedules.
	// Missed ticks coalesce: at most one tick is ever pending.
	PeriodMS int `json:"period_millis,omitempty"`
	// Concurrency is the number of cooperating workers for Unbounded
	// schedules; each invokes the component back-to-back with no
	// inter-invocation delay.
	Concurrency int `json:"concurrency,omitempty"`
}

// DefaultSchedule returns the spec's default: Interval{500ms}.
func DefaultSchedule() Schedule {
	return Schedule{Kind: ScheduleInterval, PeriodMS: DefaultIntervalPeriodMS}
}

// Validate checks the Schedule's own invariants (max_items and concurrency
// live on the definitions that embed a Schedule or carry capacity, not
// here, except for Unbounded's concurrency floor).
func (s Schedule) Validate() error {
	switch s.Kind {
	case ScheduleInterval:
		if s.PeriodMS <= 0 {
			return &InvalidScheduleError{Reason: "interval period_millis must be > 0"}
		}
	case ScheduleUnbounded:
		if s.Concurrency < 1 {
			return &InvalidScheduleError{Reason: "unbounded concurrency must be >= 1"}
		}
	default:
		return &InvalidScheduleError{Reason: "unknown schedule kind: " + string(s.Kind)}
	}
	return nil
}

// ComponentDefinition is the immutable (once added to the graph)
// description of one node: its registry type, its role, its schedule, and
// its opaque JSON configuration.
//
// ComponentDefinition 是一个节点的不可变描述（一旦加入图中）：它的注册表
// 类型、角色、调度方式，以及不透明的 JSON 配置。
type ComponentDefinition struct {
	ID            string          `json:"id,omitempty"`
	DisplayName   string          `json:"display_name"`
	TypeName      string          `json:"type_name"`
	ComponentType ComponentType   `json:"component_type"`
	Schedule      Schedule        `json:"schedule"`
	Config        json.RawMessage `json:"config,omitempty"`
}

// ConnectionDefinition is the immutable (once added to the graph)
// description of one edge: its routing name, endpoints, and capacity.
//
// ConnectionDefinition 是一条边的不可变描述（一旦加入图中）：它的路由名称、
// 端点和容量。
type ConnectionDefinition struct {
	ID       string    `json:"id,omitempty"`
	Name     string    `json:"name"`
	Source   NodeIndex `json:"source"`
	Target   NodeIndex `json:"target"`
	MaxItems int       `json:"max_items"`
}

// Normalize fills in the Name and MaxItems defaults spec.md mandates and
// validates max_items >= 1. Callers (the controller, in practice) should
// call this once before storing the definition.
func (c *ConnectionDefinition) Normalize() error {
	if c.Name == "" {
		c.Name = DefaultConnectionName
	}
	if c.MaxItems == 0 {
		c.MaxItems = DefaultMaxItems
	}
	if c.MaxItems < 1 {
		return &InvalidConnectionError{Reason: "max_items must be >= 1"}
	}
	return nil
}
