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

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bittoy/cascade/types"
)

// exprEnv is the variable view an expression sees: an item's properties
// plus its id, mirroring the corpus's msg/metadata/id evaluation context
// but collapsed to this runtime's simpler Item shape.
type exprEnv struct {
	ID         string            `expr:"id"`
	Properties map[string]string `expr:"properties"`
}

// ExprFilterConfig configures ExprFilter.
type ExprFilterConfig struct {
	// Expression must evaluate to a boolean against exprEnv.
	Expression string `json:"expression"`
}

// ExprFilter is a Processor that evaluates a boolean expr-lang expression
// against each item and routes it to the "true" or "false" named
// connection. An unwired branch is dropped silently only when the node has
// no outgoing connections at all; otherwise Send reports it as a
// *MissingOutputError.
type ExprFilter struct {
	program *vm.Program
}

// NewExprFilter compiles Expression once at construction time, matching
// the corpus's Init-time compile-once/run-many-times pattern.
func NewExprFilter(config []byte) (types.Component, error) {
	var cfg ExprFilterConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, types.NewRuntimeError("expr_filter: bad config: %v", err)
	}
	program, err := expr.Compile(cfg.Expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, types.NewRuntimeError("expr_filter: compile: %v", err)
	}
	return &ExprFilter{program: program}, nil
}

// Process implements types.Component.
func (f *ExprFilter) Process(ctx context.Context, env types.Environment) error {
	item, err := env.Recv(ctx)
	if err != nil {
		return err
	}
	out, err := vm.Run(f.program, exprEnv{ID: item.ID(), Properties: item.Properties()})
	if err != nil {
		return types.NewRuntimeError("expr_filter: eval: %v", err)
	}
	result, ok := out.(bool)
	if !ok {
		return types.NewRuntimeError("expr_filter: expression did not return a bool")
	}
	if result {
		return env.Send(ctx, "true", item)
	}
	return env.Send(ctx, "false", item)
}

var _ types.Component = (*ExprFilter)(nil)

// ExprAssignConfig configures ExprAssign.
type ExprAssignConfig struct {
	// Expression must evaluate to a string; its result is stored under
	// TargetProperty.
	Expression     string `json:"expression"`
	TargetProperty string `json:"target_property"`
}

// ExprAssign is a Processor that evaluates an expr-lang expression against
// each item and writes the (string) result into TargetProperty, then
// forwards on "default".
type ExprAssign struct {
	cfg     ExprAssignConfig
	program *vm.Program
}

// NewExprAssign compiles Expression once at construction time.
func NewExprAssign(config []byte) (types.Component, error) {
	var cfg ExprAssignConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, types.NewRuntimeError("expr_assign: bad config: %v", err)
	}
	program, err := expr.Compile(cfg.Expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, types.NewRuntimeError("expr_assign: compile: %v", err)
	}
	return &ExprAssign{cfg: cfg, program: program}, nil
}

// Process implements types.Component.
func (a *ExprAssign) Process(ctx context.Context, env types.Environment) error {
	item, err := env.Recv(ctx)
	if err != nil {
		return err
	}
	out, err := vm.Run(a.program, exprEnv{ID: item.ID(), Properties: item.Properties()})
	if err != nil {
		return types.NewRuntimeError("expr_assign: eval: %v", err)
	}
	item = item.WithProperty(a.cfg.TargetProperty, toString(out))
	return env.SendDefault(ctx, item)
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

var _ types.Component = (*ExprAssign)(nil)
