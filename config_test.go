// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Application Config related tests.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_loadDefaultConfig(t *testing.T) {
	fixFakeToolsOnPath(t, fixInfoDump)

	c, err := loadDefaultConfig()
	assert.NoError(t, err, "Should create DefaultConfig without errors")

	assert.NoError(t, c.Verify(), "DefaultConfig should be valid")
}

func Test_loadDefaultConfig_Negative(t *testing.T) {
	// Messing up PATH should result in failure detecting ffmpeg and ffprobe which
	// should result in error from calling DefaultConfig().
	t.Setenv("PATH", "")
	t.Setenv("MEDIAKIT_FFMPEG", "")
	t.Setenv("MEDIAKIT_FFPROBE", "")
	_, err := loadDefaultConfig()
	assert.ErrorContains(t, err, "DefaultConfig: ")
}

func Test_loadConfigFile(t *testing.T) {
	// For this case we do not strictly need config that is valid as per Config.Verify(),
	// just verify that loading configuration from file works.
	tests := map[string]struct {
		want  Config
		given []byte
	}{
		"Full": {
			given: []byte(`{
				"ffmpeg_path": "test_ffmpeg",
				"ffprobe_path": "test_ffprobe",
				"ffmpeg_info_template": "test template",
				"capture_limit": 4096,
				"report_file_name": "test_report.json"
			}`),
			want: Config{
				FfmpegPath:         NewConfigVal("test_ffmpeg"),
				FfprobePath:        NewConfigVal("test_ffprobe"),
				FfmpegInfoTemplate: NewConfigVal("test template"),
				CaptureLimit:       NewConfigVal(4096),
				ReportFileName:     NewConfigVal("test_report.json"),
			},
		},
		"Partial": {
			given: []byte(`{
				"ffmpeg_path": "test_ffmpeg",
				"ffmpeg_info_template": "test template"
			}`),
			want: Config{
				FfmpegPath:         NewConfigVal("test_ffmpeg"),
				FfmpegInfoTemplate: NewConfigVal("test template"),
			},
		},
		"Empty JSON": {
			given: []byte(`{}`),
			want:  Config{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			// Create config file with given contents.
			confFile := path.Join(t.TempDir(), fmt.Sprintf("config.%s", "json"))
			err := os.WriteFile(confFile, tt.given, 0o600)
			require.NoError(t, err)

			// Load config and assert contents are as expected.
			got, err := loadConfigFromFile(confFile)
			assert.NoError(t, err, "Should be no error loading configuration from file")

			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_loadConfigFile_Negative(t *testing.T) {
	t.Run("Unknown format", func(t *testing.T) {
		confFile := path.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(confFile, []byte("a: b"), 0o600))

		_, err := loadConfigFromFile(confFile)
		assert.ErrorContains(t, err, "unknown config format")
	})

	t.Run("Empty file", func(t *testing.T) {
		confFile := path.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(confFile, []byte(""), 0o600))

		_, err := loadConfigFromFile(confFile)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func Test_Config_OverrideFrom(t *testing.T) {
	fixBaseConf := func() Config {
		return Config{
			FfmpegPath:         NewConfigVal("base_ffmpeg"),
			FfprobePath:        NewConfigVal("base_ffprobe"),
			FfmpegInfoTemplate: NewConfigVal("base template"),
			CaptureLimit:       NewConfigVal(1024),
			ReportFileName:     NewConfigVal("base_report.json"),
		}
	}

	tests := map[string]struct {
		want        Config
		overrideSrc Config
	}{
		"Full config overrides all fields": {
			overrideSrc: Config{
				FfmpegPath:         NewConfigVal("test_ffmpeg"),
				FfprobePath:        NewConfigVal("test_ffprobe"),
				FfmpegInfoTemplate: NewConfigVal("test template"),
				CaptureLimit:       NewConfigVal(4096),
				ReportFileName:     NewConfigVal("test_report.json"),
			},
			want: Config{
				FfmpegPath:         NewConfigVal("test_ffmpeg"),
				FfprobePath:        NewConfigVal("test_ffprobe"),
				FfmpegInfoTemplate: NewConfigVal("test template"),
				CaptureLimit:       NewConfigVal(4096),
				ReportFileName:     NewConfigVal("test_report.json"),
			},
		},
		"Partial config overrides partial fields": {
			overrideSrc: Config{
				FfmpegPath: NewConfigVal("test_ffmpeg"),
			},
			want: Config{
				FfmpegPath:         NewConfigVal("test_ffmpeg"),
				FfprobePath:        NewConfigVal("base_ffprobe"),
				FfmpegInfoTemplate: NewConfigVal("base template"),
				CaptureLimit:       NewConfigVal(1024),
				ReportFileName:     NewConfigVal("base_report.json"),
			},
		},
		"Empty config overrides nothing": {
			overrideSrc: Config{},
			want:        fixBaseConf(),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := fixBaseConf()
			got.OverrideFrom(tt.overrideSrc)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Config_Verify_Negative(t *testing.T) {
	c := Config{
		FfmpegPath:  NewConfigVal("/non/existent/ffmpeg"),
		FfprobePath: NewConfigVal("/non/existent/ffprobe"),
	}
	err := c.Verify()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorContains(t, err, "invalid ffmpeg path")
	assert.ErrorContains(t, err, "capture limit must be positive")
}

func Test_DumpConfApp_Run(t *testing.T) {
	fixFakeToolsOnPath(t, fixInfoDump)

	var buf bytes.Buffer
	app := CreateDumpConfCommand()
	app.(*DumpConfApp).out = &buf

	err := app.Run([]string{})
	require.NoError(t, err)

	var got Config
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.False(t, got.FfmpegPath.IsNil())
	assert.Equal(t, defaultReportFile, got.ReportFileName.Value())
}
