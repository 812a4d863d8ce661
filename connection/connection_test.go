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

package connection_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittoy/cascade/connection"
	"github.com/bittoy/cascade/types"
)

func TestSendRecvRoundTrip(t *testing.T) {
	c := connection.New("c1", "default", 4, nil)
	item := types.NewItem(map[string]string{"k": "v"}, "", nil)

	require.NoError(t, c.Send(item))
	assert.Equal(t, 1, c.Len())

	got, isShutdown, err := c.Recv()
	require.NoError(t, err)
	assert.False(t, isShutdown)
	assert.Equal(t, item.ID(), got.ID())
	assert.Equal(t, 0, c.Len())
}

func TestShutdownSentinel(t *testing.T) {
	c := connection.New("c1", "default", 4, nil)
	require.NoError(t, c.SendShutdown())

	_, isShutdown, err := c.Recv()
	require.NoError(t, err)
	assert.True(t, isShutdown)
}

func TestSendAfterCloseFails(t *testing.T) {
	c := connection.New("c1", "default", 4, nil)
	c.Close()

	err := c.Send(types.NewItem(nil, "", nil))
	assert.ErrorIs(t, err, types.ErrOutputClosed)
}

func TestRecvAfterCloseReportsInputClosed(t *testing.T) {
	c := connection.New("c1", "default", 4, nil)
	c.Close()

	_, _, err := c.Recv()
	assert.ErrorIs(t, err, types.ErrInputClosed)
}

func TestReceiverLending(t *testing.T) {
	c := connection.New("c1", "default", 4, nil)
	assert.True(t, c.AcquireReceiver())
	assert.False(t, c.AcquireReceiver())

	c.ReleaseReceiver()
	assert.True(t, c.AcquireReceiver())
}

func TestSendBlocksAtCapacity(t *testing.T) {
	c := connection.New("c1", "default", 1, nil)
	require.NoError(t, c.Send(types.NewItem(nil, "", nil)))

	done := make(chan struct{})
	go func() {
		_ = c.Send(types.NewItem(nil, "", nil))
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("second send should have blocked at capacity 1")
	default:
	}

	_, _, err := c.Recv()
	require.NoError(t, err)
	<-done // now unblocks
}
