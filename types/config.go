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

import (
	"log"
	"os"
)

// Logger is the minimal logging contract the engine depends on. It is
// satisfied directly by *log.Logger, so callers who already have one
// configured (with whatever prefix/output/flags they like) can pass it
// straight through.
//
// Logger 是引擎依赖的最小日志契约。*log.Logger 直接满足它，因此已经配置好
// 一个 logger（无论前缀/输出/标志如何）的调用者可以直接传入。
type Logger interface {
	Printf(format string, args ...any)
}

// DefaultLogger returns a Logger writing to stderr with a "cascade: " prefix
// and timestamp, used whenever a Config is built without WithLogger.
func DefaultLogger() Logger {
	return log.New(os.Stderr, "cascade: ", log.LstdFlags)
}

// Config bundles the dependencies a Controller needs beyond the graph
// itself: where to log, which Registry to resolve type_names against, and
// which metrics collectors to update. Construct one with NewConfig.
//
// Config 捆绑了 Controller 除图本身之外所需的依赖：在哪里记录日志、针对
// 哪个 Registry 解析 type_name，以及更新哪些指标收集器。使用 NewConfig
// 构造。
type Config struct {
	// Logger receives one line per component Process error (never nil
	// after NewConfig). Node start/stop events are not logged.
	Logger Logger

	// Registry resolves ComponentDefinition.TypeName to a Factory. Left
	// nil (never nil after NewConfig — see WithRegistry) it defaults to
	// an empty registry, which makes every AddComponent call fail with
	// *MissingComponentError until the caller registers something.
	Registry Registry

	// Metrics is the collector set connection/controller update. A nil
	// value after NewConfig falls back to NoOpMetrics(), so instrumenting
	// every deployment with prometheus is opt-in, not mandatory.
	Metrics MetricsRecorder
}

// MetricsRecorder is the subset of instrumentation the core engine emits
// into, implemented by the metrics package's prometheus-backed collectors
// (or a no-op stand-in when the caller does not care to wire one up).
//
// Kept in package types — rather than importing the metrics package
// directly — so that types has no dependency on prometheus; the metrics
// package depends on types, not the reverse.
type MetricsRecorder interface {
	// ConnectionDepth reports the current buffered item count for the
	// named connection between the two endpoints.
	ConnectionDepth(connectionID string, name string, depth int)
	// NodeInvocation records one component.Process call's outcome and
	// duration in seconds.
	NodeInvocation(nodeID string, typeName string, ok bool, durationSeconds float64)
	// NodeStarted / NodeStopped record lifecycle transitions.
	NodeStarted(nodeID string, typeName string)
	NodeStopped(nodeID string, typeName string)
}

type noOpMetrics struct{}

func (noOpMetrics) ConnectionDepth(string, string, int)       {}
func (noOpMetrics) NodeInvocation(string, string, bool, float64) {}
func (noOpMetrics) NodeStarted(string, string)                {}
func (noOpMetrics) NodeStopped(string, string)                 {}

// NoOpMetrics is a MetricsRecorder that discards everything, used as the
// Config default so instrumentation is opt-in.
func NoOpMetrics() MetricsRecorder { return noOpMetrics{} }

// emptyRegistry is the Config default Registry: every New call fails with
// *MissingComponentError, which is the correct behavior for a Controller
// nobody has registered any component types into yet.
type emptyRegistry struct{}

func (emptyRegistry) Register(string, Factory)  {}
func (emptyRegistry) Unregister(string)         {}
func (emptyRegistry) Has(string) bool           { return false }
func (emptyRegistry) TypeNames() []string       { return nil }
func (emptyRegistry) New(typeName string, _ []byte) (Component, error) {
	return nil, &MissingComponentError{TypeName: typeName}
}

// Option configures a Config built by NewConfig, following the same
// functional-options shape used throughout this codebase's predecessors.
type Option func(*Config) error

// WithLogger overrides the Logger used for component errors.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithRegistry overrides the Registry used to resolve type_names.
func WithRegistry(registry Registry) Option {
	return func(c *Config) error {
		c.Registry = registry
		return nil
	}
}

// WithMetrics overrides the MetricsRecorder used for instrumentation.
func WithMetrics(recorder MetricsRecorder) Option {
	return func(c *Config) error {
		c.Metrics = recorder
		return nil
	}
}

// NewConfig builds a Config with the engine's defaults — a stderr Logger,
// an empty Registry, and no-op metrics — then applies opts in order. An
// option returning a non-nil error aborts and that error is returned; the
// first one encountered wins.
func NewConfig(opts ...Option) (Config, error) {
	c := Config{
		Logger:   DefaultLogger(),
		Registry: emptyRegistry{},
		Metrics:  NoOpMetrics(),
	}
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return c, err
		}
	}
	if c.Logger == nil {
		c.Logger = DefaultLogger()
	}
	if c.Registry == nil {
		c.Registry = emptyRegistry{}
	}
	if c.Metrics == nil {
		c.Metrics = NoOpMetrics()
	}
	return c, nil
}
