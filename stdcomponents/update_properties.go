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

	"github.com/fatih/structs"
	"github.com/mitchellh/mapstructure"

	"github.com/bittoy/cascade/types"
)

// UpdatePropertiesConfig configures UpdateProperties.
type UpdatePropertiesConfig struct {
	Updates map[string]string `json:"updates" mapstructure:"updates"`
}

// UpdateProperties is a Processor that merges a static set of property
// updates into every item it receives, then forwards it on "default".
// Config decoding goes through mapstructure (the corpus's preferred
// map-to-struct bridge), and the decoded struct is projected back into a
// plain map via fatih/structs before merging, matching the same
// struct<->map round trip the corpus's config layer uses elsewhere.
type UpdateProperties struct {
	cfg UpdatePropertiesConfig
}

// NewUpdateProperties is the types.Factory for "update_properties".
func NewUpdateProperties(config []byte) (types.Component, error) {
	var raw map[string]interface{}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &raw); err != nil {
			return nil, types.NewRuntimeError("update_properties: bad config: %v", err)
		}
	}
	var cfg UpdatePropertiesConfig
	if err := mapstructure.Decode(raw, &cfg); err != nil {
		return nil, types.NewRuntimeError("update_properties: decode: %v", err)
	}
	return &UpdateProperties{cfg: cfg}, nil
}

// Process implements types.Component.
func (u *UpdateProperties) Process(ctx context.Context, env types.Environment) error {
	item, err := env.Recv(ctx)
	if err != nil {
		return err
	}

	updates := structs.Map(&u.cfg)["Updates"].(map[string]string)
	for k, v := range updates {
		item = item.WithProperty(k, v)
	}
	return env.SendDefault(ctx, item)
}

var _ types.Component = (*UpdateProperties)(nil)
