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

// Package stdcomponents provides a small catalog of reference Producer and
// Processor implementations, used by this module's own tests and the
// runnable example rather than shipped as a production component library.
package stdcomponents

import (
	"context"
	"encoding/json"

	"github.com/bittoy/cascade/types"
)

// GenerateItemConfig configures GenerateItem.
type GenerateItemConfig struct {
	// BatchSize is how many fresh items one Process call emits. Defaults
	// to 1 if zero.
	BatchSize int `json:"batch_size"`
	// Properties are static key/value pairs stamped onto every item.
	Properties map[string]string `json:"properties"`
}

// GenerateItem is a Producer that emits BatchSize fresh items per
// invocation, each stamped with the configured static properties.
type GenerateItem struct {
	cfg GenerateItemConfig
}

// NewGenerateItem is the types.Factory for "generate_item".
func NewGenerateItem(config []byte) (types.Component, error) {
	cfg := GenerateItemConfig{BatchSize: 1}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &cfg); err != nil {
			return nil, types.NewRuntimeError("generate_item: bad config: %v", err)
		}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	return &GenerateItem{cfg: cfg}, nil
}

// Process implements types.Component.
func (g *GenerateItem) Process(ctx context.Context, env types.Environment) error {
	for i := 0; i < g.cfg.BatchSize; i++ {
		item := types.NewItem(g.cfg.Properties, "", nil)
		if err := env.SendDefault(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

var _ types.Component = (*GenerateItem)(nil)
