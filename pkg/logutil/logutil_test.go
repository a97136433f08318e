// Copyright 2021 - 2022 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogConfig_getter(t *testing.T) {
	tests := []struct {
		name        string
		cfg         LogConfig
		wantLevel   zap.AtomicLevel
		wantOpts    int
		wantSyncer  zapcore.WriteSyncer
		wantEncoder zapcore.Encoder
	}{
		{
			name:        "console",
			cfg:         LogConfig{Level: "debug", Format: "console"},
			wantLevel:   zap.NewAtomicLevelAt(zap.DebugLevel),
			wantOpts:    2,
			wantSyncer:  getConsoleSyncer(),
			wantEncoder: getLoggerEncoder("console"),
		},
		{
			name:        "json",
			cfg:         LogConfig{Level: "error", Format: "json"},
			wantLevel:   zap.NewAtomicLevelAt(zap.ErrorLevel),
			wantOpts:    2,
			wantSyncer:  getConsoleSyncer(),
			wantEncoder: getLoggerEncoder("json"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := zapcore.Entry{Level: zapcore.InfoLevel, Message: "msg"}
			require.Equal(t, tt.wantLevel, tt.cfg.getLevel())
			require.Equal(t, tt.wantOpts, len(tt.cfg.getOptions()))
			require.Equal(t, tt.wantSyncer, tt.cfg.getSyncer())
			wantMsg, _ := tt.wantEncoder.EncodeEntry(entry, nil)
			gotMsg, _ := tt.cfg.getEncoder().EncodeEntry(entry, nil)
			require.Equal(t, wantMsg.String(), gotMsg.String())
		})
	}
}

func TestAdjust(t *testing.T) {
	var cfg LogConfig
	cfg.Adjust()
	require.Equal(t, "info", cfg.Level)
	require.Equal(t, "console", cfg.Format)
}

func TestGlobalLogger(t *testing.T) {
	require.NotNil(t, GetGlobalLogger())
	SetupMOLogger(&LogConfig{Level: "debug", Format: "json"})
	require.NotNil(t, GetGlobalLogger())
	Info("logutil test", zap.Int("n", 1))
	Debugf("logutil test %d", 2)
}
