// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Reusable helpers and fixtures for tests.
package main

import (
	"fmt"
	"os"
	"path"
	"testing"
)

// Canned ffmpeg diagnostic output for a small mp4 clip.
const fixInfoDump = `ffmpeg version 4.4.2 Copyright (c) 2000-2021 the FFmpeg developers
Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'test.mp4':
  Metadata:
    major_brand     : isom
  Duration: 00:00:10.00, start: 0.000000, bitrate: 93 kb/s
  Stream #0:0(und): Video: h264 (High) (avc1 / 0x31637661), yuv420p, 1280x720 [SAR 1:1 DAR 16:9], 86 kb/s, 24 fps, 24 tbr, 12288 tbn, 48 tbc (default)
  Stream #0:1(und): Audio: aac (LC) (mp4a / 0x6134706D), 44100 Hz, stereo, fltp, 2 kb/s (default)
At least one output file must be specified`

// Canned ffmpeg diagnostic output for a missing media file.
const fixNotFoundDump = `ffmpeg version 4.4.2 Copyright (c) 2000-2021 the FFmpeg developers
missing.mp4: No such file or directory`

// fixFakeToolsOnPath fixture creates fake ffmpeg and ffprobe binaries and
// puts them on PATH so that configuration auto-detection finds them.
//
// The fake ffmpeg dumps given canned diagnostics to stderr and exits
// non-zero, just like the real bare "-i" invocation does. The fake ffprobe
// prints nothing useful, tests relying on frame counting should not use it.
func fixFakeToolsOnPath(t *testing.T, dump string) {
	t.Helper()
	fakePath := t.TempDir()
	t.Setenv("PATH", fmt.Sprintf("%s:%s", fakePath, os.Getenv("PATH")))

	ffmpeg := fmt.Sprintf("#!/bin/sh\ncat >&2 <<'MEDIAKIT_EOF'\n%s\nMEDIAKIT_EOF\nexit 1\n", dump)
	if err := os.WriteFile(path.Join(fakePath, "ffmpeg"), []byte(ffmpeg), 0o755); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	ffprobe := "#!/bin/sh\nexit 0\n"
	if err := os.WriteFile(path.Join(fakePath, "ffprobe"), []byte(ffprobe), 0o755); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}
