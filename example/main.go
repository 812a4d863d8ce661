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

// Command example wires a small three-node pipeline — generate_item ->
// update_properties -> log_message — start it, let it run briefly, then
// shuts it down cooperatively. It demonstrates the Controller's Go API
// directly, since this module deliberately ships no HTTP/JSON control
// surface of its own.
package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/bittoy/cascade/controller"
	"github.com/bittoy/cascade/registry"
	"github.com/bittoy/cascade/stdcomponents"
	"github.com/bittoy/cascade/types"
)

func main() {
	reg := registry.New()
	logger := types.DefaultLogger()
	stdcomponents.RegisterAll(reg, logger)

	cfg, err := types.NewConfig(types.WithRegistry(reg), types.WithLogger(logger))
	if err != nil {
		log.Fatalf("build config: %v", err)
	}
	ctrl := controller.New(cfg)

	genConfig, _ := json.Marshal(stdcomponents.GenerateItemConfig{
		BatchSize:  1,
		Properties: map[string]string{"source": "example"},
	})
	gen, err := ctrl.AddComponent(types.ComponentDefinition{
		DisplayName:   "generator",
		TypeName:      "generate_item",
		ComponentType: types.Producer,
		Schedule:      types.Schedule{Kind: types.ScheduleInterval, PeriodMS: 200},
		Config:        genConfig,
	})
	if err != nil {
		log.Fatalf("add generator: %v", err)
	}

	updConfig, _ := json.Marshal(stdcomponents.UpdatePropertiesConfig{
		Updates: map[string]string{"stage": "updated"},
	})
	upd, err := ctrl.AddComponent(types.ComponentDefinition{
		DisplayName:   "updater",
		TypeName:      "update_properties",
		ComponentType: types.Processor,
		Schedule:      types.Schedule{Kind: types.ScheduleUnbounded, Concurrency: 1},
		Config:        updConfig,
	})
	if err != nil {
		log.Fatalf("add updater: %v", err)
	}

	logConfig, _ := json.Marshal(stdcomponents.LogMessageConfig{TypeName: "log_message", NodeID: "logger"})
	logNode, err := ctrl.AddComponent(types.ComponentDefinition{
		DisplayName:   "logger",
		TypeName:      "log_message",
		ComponentType: types.Processor,
		Schedule:      types.Schedule{Kind: types.ScheduleUnbounded, Concurrency: 1},
		Config:        logConfig,
	})
	if err != nil {
		log.Fatalf("add logger: %v", err)
	}

	if _, err := ctrl.AddConnection(types.ConnectionDefinition{Name: "default", Source: gen, Target: upd, MaxItems: 16}); err != nil {
		log.Fatalf("wire generator->updater: %v", err)
	}
	if _, err := ctrl.AddConnection(types.ConnectionDefinition{Name: "default", Source: upd, Target: logNode, MaxItems: 16}); err != nil {
		log.Fatalf("wire updater->logger: %v", err)
	}

	ctx := context.Background()
	// Start downstream before upstream so no produced item ever finds its
	// target connection's receiver not yet lent.
	for _, idx := range []types.NodeIndex{logNode, upd, gen} {
		if _, err := ctrl.StartComponent(ctx, idx); err != nil {
			log.Fatalf("start %d: %v", idx, err)
		}
	}

	time.Sleep(1200 * time.Millisecond)

	for _, idx := range []types.NodeIndex{gen, upd, logNode} {
		if _, err := ctrl.StopComponent(ctx, idx); err != nil {
			log.Fatalf("stop %d: %v", idx, err)
		}
	}
}
