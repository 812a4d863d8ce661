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

package types_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittoy/cascade/types"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := types.NewConfig()
	require.NoError(t, err)
	assert.NotNil(t, cfg.Logger)
	assert.NotNil(t, cfg.Registry)
	assert.NotNil(t, cfg.Metrics)

	_, err = cfg.Registry.New("anything", nil)
	var missing *types.MissingComponentError
	assert.ErrorAs(t, err, &missing)
}

type stubLogger struct{}

func (stubLogger) Printf(string, ...any) {}

func TestWithLoggerOverridesDefault(t *testing.T) {
	logger := stubLogger{}
	cfg, err := types.NewConfig(types.WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, logger, cfg.Logger)
}

var errBadOption = errors.New("bad option")

func TestNewConfigShortCircuitsOnOptionError(t *testing.T) {
	failing := func(*types.Config) error { return errBadOption }
	_, err := types.NewConfig(failing)
	assert.ErrorIs(t, err, errBadOption)
}

func TestNoOpMetricsRecordsNothingAndNeverPanics(t *testing.T) {
	m := types.NoOpMetrics()
	assert.NotPanics(t, func() {
		m.ConnectionDepth("c", "default", 3)
		m.NodeInvocation("n", "t", true, 0.01)
		m.NodeStarted("n", "t")
		m.NodeStopped("n", "t")
	})
}
