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
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/bittoy/cascade/types"
)

// MQTTSubscribeConfig configures MQTTSubscribe.
type MQTTSubscribeConfig struct {
	Broker string `json:"broker"`
	Topic  string `json:"topic"`
	QoS    byte   `json:"qos"`
	// ClientID defaults to a generated id if left blank.
	ClientID string `json:"client_id"`
}

// MQTTSubscribe is a Producer reacting to an external push source rather
// than polling: its natural Schedule is Unbounded{1}, not Interval, since
// Process simply drains whatever the MQTT client's callback has already
// buffered. Connects and subscribes once, lazily, on the first Process
// call, so construction itself never blocks on network I/O.
type MQTTSubscribe struct {
	cfg     MQTTSubscribeConfig
	client  mqtt.Client
	inbox   chan []byte
	started bool
}

// NewMQTTSubscribe is the types.Factory for "mqtt_subscribe".
func NewMQTTSubscribe(config []byte) (types.Component, error) {
	var cfg MQTTSubscribeConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return nil, types.NewRuntimeError("mqtt_subscribe: bad config: %v", err)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "cascade-" + time.Now().UTC().Format("150405.000000000")
	}
	return &MQTTSubscribe{cfg: cfg, inbox: make(chan []byte, 256)}, nil
}

func (m *MQTTSubscribe) ensureStarted() error {
	if m.started {
		return nil
	}
	opts := mqtt.NewClientOptions().AddBroker(m.cfg.Broker).SetClientID(m.cfg.ClientID)
	m.client = mqtt.NewClient(opts)
	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return &types.IoError{Cause: token.Error()}
	}
	token := m.client.Subscribe(m.cfg.Topic, m.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		payload := append([]byte(nil), msg.Payload()...)
		select {
		case m.inbox <- payload:
		default:
			// Inbox full: drop rather than block the paho callback
			// goroutine, which would stall the client's network loop.
		}
	})
	if token.Wait() && token.Error() != nil {
		return &types.IoError{Cause: token.Error()}
	}
	m.started = true
	return nil
}

// Process implements types.Component. It drains at most one buffered MQTT
// payload per invocation into a fresh Item carried as inline content.
func (m *MQTTSubscribe) Process(ctx context.Context, env types.Environment) error {
	if err := m.ensureStarted(); err != nil {
		return err
	}

	select {
	case payload := <-m.inbox:
		item := types.NewItem(map[string]string{"topic": m.cfg.Topic}, "payload", contentPtr(types.InlineContent(payload)))
		return env.SendDefault(ctx, item)
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
		// Nothing arrived this tick; a no-op Process call is normal for a
		// push-driven producer and is not logged as an error.
		return nil
	}
}

func contentPtr(c types.ContentRef) *types.ContentRef { return &c }

var _ types.Component = (*MQTTSubscribe)(nil)
