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

	"github.com/bittoy/cascade/types"
)

// LogMessageConfig configures LogMessage.
type LogMessageConfig struct {
	// TypeName and NodeID are stamped into the log line's
	// "[Type:TypeName:Id]" prefix. They come from the node's config as
	// written by the caller; the controller passes config through
	// unchanged and does not fill them in.
	TypeName string `json:"type_name"`
	NodeID   string `json:"node_id"`
}

// LogMessage is a Processor that writes one line per item through the
// engine Logger, prefixed "[Type:TypeName:Id]", then forwards the item
// unchanged on "default".
type LogMessage struct {
	cfg    LogMessageConfig
	logger types.Logger
}

// NewLogMessageFactory returns a types.Factory bound to logger, so every
// instance it creates logs through the same Logger the owning Config uses.
func NewLogMessageFactory(logger types.Logger) types.Factory {
	return func(config []byte) (types.Component, error) {
		var cfg LogMessageConfig
		if len(config) > 0 {
			if err := json.Unmarshal(config, &cfg); err != nil {
				return nil, types.NewRuntimeError("log_message: bad config: %v", err)
			}
		}
		return &LogMessage{cfg: cfg, logger: logger}, nil
	}
}

// Process implements types.Component.
func (l *LogMessage) Process(ctx context.Context, env types.Environment) error {
	item, err := env.Recv(ctx)
	if err != nil {
		return err
	}
	l.logger.Printf("[Type:%s:%s] item %s properties=%v", l.cfg.TypeName, l.cfg.NodeID, item.ID(), item.Properties())
	return env.SendDefault(ctx, item)
}

var _ types.Component = (*LogMessage)(nil)
