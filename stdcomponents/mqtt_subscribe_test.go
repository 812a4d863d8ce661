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

package stdcomponents_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittoy/cascade/stdcomponents"
	"github.com/bittoy/cascade/types"
)

// startFakeMQTTBroker accepts exactly one client connection and speaks just
// enough of MQTT 3.1.1 (CONNECT/CONNACK, SUBSCRIBE/SUBACK, PINGREQ/PINGRESP)
// to let paho.mqtt.golang subscribe; it then pushes a single PUBLISH on
// topic carrying payload, simulating an external publisher. It never
// parses a client PUBLISH, since MQTTSubscribe never sends one.
func startFakeMQTTBroker(t *testing.T, topic string, payload []byte) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetDeadline(time.Now().Add(5 * time.Second))
		r := bufio.NewReader(conn)
		for {
			header, err := r.ReadByte()
			if err != nil {
				return
			}
			packetType := header >> 4
			length, err := readRemainingLength(r)
			if err != nil {
				return
			}
			body := make([]byte, length)
			if length > 0 {
				if _, err := io.ReadFull(r, body); err != nil {
					return
				}
			}
			switch packetType {
			case 1: // CONNECT
				if _, err := conn.Write([]byte{0x20, 0x02, 0x00, 0x00}); err != nil {
					return
				}
			case 8: // SUBSCRIBE
				if len(body) < 2 {
					return
				}
				suback := []byte{0x90, 0x03, body[0], body[1], 0x00}
				if _, err := conn.Write(suback); err != nil {
					return
				}

				topicBytes := []byte(topic)
				tl := len(topicBytes)
				remaining := encodeRemainingLength(2 + tl + len(payload))
				pub := append([]byte{0x30}, remaining...)
				pub = append(pub, byte(tl>>8), byte(tl&0xFF))
				pub = append(pub, topicBytes...)
				pub = append(pub, payload...)
				if _, err := conn.Write(pub); err != nil {
					return
				}
			case 12: // PINGREQ
				if _, err := conn.Write([]byte{0xD0, 0x00}); err != nil {
					return
				}
			case 14: // DISCONNECT
				return
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return fmt.Sprintf("tcp://127.0.0.1:%d", addr.Port)
}

func readRemainingLength(r *bufio.Reader) (int, error) {
	multiplier := 1
	value := 0
	for i := 0; i < 4; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		value += int(b&0x7F) * multiplier
		if b&0x80 == 0 {
			return value, nil
		}
		multiplier *= 128
	}
	return value, nil
}

func encodeRemainingLength(length int) []byte {
	var out []byte
	for {
		b := byte(length % 128)
		length /= 128
		if length > 0 {
			b |= 0x80
		}
		out = append(out, b)
		if length == 0 {
			break
		}
	}
	return out
}

func TestMQTTSubscribeDeliversPublishedMessage(t *testing.T) {
	broker := startFakeMQTTBroker(t, "sensors/temp", []byte("21.5"))

	cfg, err := json.Marshal(stdcomponents.MQTTSubscribeConfig{
		Broker: broker,
		Topic:  "sensors/temp",
		QoS:    0,
	})
	require.NoError(t, err)

	comp, err := stdcomponents.NewMQTTSubscribe(cfg)
	require.NoError(t, err)

	env := newFakeEnv()
	ctx := context.Background()

	deadline := time.Now().Add(2 * time.Second)
	for len(env.out[types.DefaultConnectionName]) == 0 && time.Now().Before(deadline) {
		require.NoError(t, comp.Process(ctx, env))
	}

	out := env.out[types.DefaultConnectionName]
	require.NotEmpty(t, out, "expected MQTTSubscribe to deliver the broker's published message")

	ref, ok := out[0].Content("payload")
	require.True(t, ok)
	assert.Equal(t, []byte("21.5"), ref.Inline)

	topicProp, ok := out[0].Property("topic")
	assert.True(t, ok)
	assert.Equal(t, "sensors/temp", topicProp)
}
