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

package stdcomponents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"

	"github.com/bittoy/cascade/types"
)

// JSFilterConfig configures JSFilter.
type JSFilterConfig struct {
	// Script is the body of a "function filter(id, properties) { ... }"
	// wrapper that must return a boolean.
	Script string `json:"script"`
}

// JSFilter is a Processor evaluating a JavaScript predicate per item via
// goja. A fresh goja.Runtime is created per Process call — goja VMs are
// not goroutine-safe, which matters for Unbounded{N>1} nodes sharing one
// component instance across N concurrent workers — but the program itself
// is parsed once at construction.
type JSFilter struct {
	program *goja.Program
}

// NewJSFilter precompiles Script into a goja.Program once.
func NewJSFilter(config []byte) (types.Component, error) {
	var cfg JSFilterConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, types.NewRuntimeError("js_filter: bad config: %v", err)
	}
	src := fmt.Sprintf("function filter(id, properties) { %s }\nfilter;", cfg.Script)
	program, err := goja.Compile("js_filter.js", src, true)
	if err != nil {
		return nil, types.NewRuntimeError("js_filter: compile: %v", err)
	}
	return &JSFilter{program: program}, nil
}

// Process implements types.Component.
func (f *JSFilter) Process(ctx context.Context, env types.Environment) error {
	item, err := env.Recv(ctx)
	if err != nil {
		return err
	}

	vm := goja.New()
	fn, err := vm.RunProgram(f.program)
	if err != nil {
		return types.NewRuntimeError("js_filter: load: %v", err)
	}
	callable, ok := goja.AssertFunction(fn)
	if !ok {
		return types.NewRuntimeError("js_filter: script did not evaluate to a function")
	}
	out, err := callable(goja.Undefined(), vm.ToValue(item.ID()), vm.ToValue(item.Properties()))
	if err != nil {
		return types.NewRuntimeError("js_filter: eval: %v", err)
	}
	if out.ToBoolean() {
		return env.Send(ctx, "true", item)
	}
	return env.Send(ctx, "false", item)
}

var _ types.Component = (*JSFilter)(nil)

// JSTransformConfig configures JSTransform.
type JSTransformConfig struct {
	// Script is the body of a "function transform(id, properties) { ... }"
	// wrapper that must return an object of string properties to merge.
	Script string `json:"script"`
}

// JSTransform is a Processor that runs a JavaScript function per item and
// merges its returned object into the item's properties, then forwards on
// "default".
type JSTransform struct {
	program *goja.Program
}

// NewJSTransform precompiles Script into a goja.Program once.
func NewJSTransform(config []byte) (types.Component, error) {
	var cfg JSTransformConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, types.NewRuntimeError("js_transform: bad config: %v", err)
	}
	src := fmt.Sprintf("function transform(id, properties) { %s }\ntransform;", cfg.Script)
	program, err := goja.Compile("js_transform.js", src, true)
	if err != nil {
		return nil, types.NewRuntimeError("js_transform: compile: %v", err)
	}
	return &JSTransform{program: program}, nil
}

// Process implements types.Component.
func (t *JSTransform) Process(ctx context.Context, env types.Environment) error {
	item, err := env.Recv(ctx)
	if err != nil {
		return err
	}

	vm := goja.New()
	fn, err := vm.RunProgram(t.program)
	if err != nil {
		return types.NewRuntimeError("js_transform: load: %v", err)
	}
	callable, ok := goja.AssertFunction(fn)
	if !ok {
		return types.NewRuntimeError("js_transform: script did not evaluate to a function")
	}
	out, err := callable(goja.Undefined(), vm.ToValue(item.ID()), vm.ToValue(item.Properties()))
	if err != nil {
		return types.NewRuntimeError("js_transform: eval: %v", err)
	}

	exported, ok := out.Export().(map[string]interface{})
	if !ok {
		return types.NewRuntimeError("js_transform: script must return an object")
	}
	for k, v := range exported {
		item = item.WithProperty(k, fmt.Sprintf("%v", v))
	}
	return env.SendDefault(ctx, item)
}

var _ types.Component = (*JSTransform)(nil)
