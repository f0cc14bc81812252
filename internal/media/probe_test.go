// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package media

import (
	"fmt"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixFakeFfmpeg creates a fake ffmpeg that dumps canned diagnostics to
// stderr and exits non-zero, just like the real bare "-i" invocation does.
func fixFakeFfmpeg(t *testing.T, dump string) string {
	t.Helper()
	script := fmt.Sprintf("#!/bin/sh\ncat >&2 <<'MEDIAKIT_EOF'\n%s\nMEDIAKIT_EOF\nexit 1\n", dump)
	p := path.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(p, []byte(script), 0o755))
	return p
}

// fixFakeFfprobe creates a fake ffprobe printing canned compact output.
func fixFakeFfprobe(t *testing.T, out string) string {
	t.Helper()
	script := fmt.Sprintf("#!/bin/sh\nprintf '%%s\\n' '%s'\n", out)
	p := path.Join(t.TempDir(), "ffprobe")
	require.NoError(t, os.WriteFile(p, []byte(script), 0o755))
	return p
}

const fixInfoDump = `ffmpeg version 4.4.2 Copyright (c) 2000-2021 the FFmpeg developers
Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'test.mp4':
  Metadata:
    major_brand     : isom
    rotate          : 90
  Duration: 00:00:10.00, start: 0.000000, bitrate: 93 kb/s
  Stream #0:0(und): Video: h264 (High) (avc1 / 0x31637661), yuv420p, 1280x720 [SAR 1:1 DAR 16:9], 86 kb/s, 24 fps, 24 tbr, 12288 tbn, 48 tbc (default)
  Stream #0:1(und): Audio: aac (LC) (mp4a / 0x6134706D), 44100 Hz, stereo, fltp, 2 kb/s (default)
At least one output file must be specified`

const fixGIFDump = `Input #0, gif, from 'anim.gif':
  Duration: N/A, bitrate: N/A
  Stream #0:0: Video: gif, bgra, 320x240, 15 fps, 15 tbr, 100 tbn, 100 tbc
Output #0, null, to '/dev/null':
frame=   50 fps=0.0 q=-0.0 size=N/A time=00:00:01.70 bitrate=N/A speed= 135x
frame=  166 fps=0.0 q=-0.0 Lsize=N/A time=00:00:11.06 bitrate=N/A speed= 131x`

const fixNoDurationDump = `Input #0, matroska,webm, from 'test.mkv':
  Duration: N/A, bitrate: N/A
  Stream #0:0: Video: vp8, yuv420p, 640x360, SAR 1:1 DAR 16:9, 15 fps, 15 tbr, 1k tbn`

func Test_ExtractMetadata(t *testing.T) {
	p := &Prober{FfmpegPath: fixFakeFfmpeg(t, fixInfoDump)}

	got, err := p.ExtractMetadata("test.mp4", FPSSourceTBR)
	require.NoError(t, err)

	want := Metadata{
		Duration:        10,
		Size:            Dimensions{Width: 1280, Height: 720},
		VideoFound:      true,
		VideoFPS:        24,
		VideoFrameCount: 241,
		VideoDuration:   10,
		VideoRotation:   90,
		VideoSize:       Dimensions{Width: 1280, Height: 720},
		AudioFound:      true,
		AudioSampleRate: 44100,
	}
	assert.Equal(t, want, got)
}

func Test_ExtractMetadata_StillAnimation(t *testing.T) {
	p := &Prober{FfmpegPath: fixFakeFfmpeg(t, fixGIFDump)}

	got, err := p.ExtractMetadata("anim.gif", FPSSourceTBR)
	require.NoError(t, err)

	assert.True(t, got.VideoFound)
	// Duration comes from the last decode progress line, not the first
	// approximation.
	assert.InDelta(t, 11.06, got.Duration, 1e-9)
	assert.Equal(t, float64(15), got.VideoFPS)
	assert.Equal(t, Dimensions{Width: 320, Height: 240}, got.VideoSize)
	assert.False(t, got.AudioFound)
}

func Test_ExtractMetadata_FrameCountFallback(t *testing.T) {
	p := &Prober{
		FfmpegPath:  fixFakeFfmpeg(t, fixNoDurationDump),
		FfprobePath: fixFakeFfprobe(t, "15/1|166"),
	}

	got, err := p.ExtractMetadata("test.mkv", FPSSourceTBR)
	require.NoError(t, err)

	assert.True(t, got.VideoFound)
	assert.Equal(t, float64(15), got.VideoFPS)
	assert.Equal(t, 166, got.VideoFrameCount)
	assert.InDelta(t, float64(166)/15, got.Duration, 1e-9)
	assert.InDelta(t, float64(166)/15, got.VideoDuration, 1e-9)
	assert.Equal(t, Dimensions{Width: 640, Height: 360}, got.VideoSize)
}

func Test_ExtractMetadata_Negative(t *testing.T) {
	t.Run("Missing media file", func(t *testing.T) {
		dump := "Input #0: none\nmissing.mp4: No such file or directory"
		p := &Prober{FfmpegPath: fixFakeFfmpeg(t, dump)}

		got, err := p.ExtractMetadata("missing.mp4", FPSSourceTBR)
		assert.ErrorIs(t, err, ErrMediaNotFound)
		assert.False(t, got.VideoFound)
		assert.False(t, got.AudioFound)
	})

	t.Run("Video line without parsable dimensions", func(t *testing.T) {
		dump := `Input #0, mov, from 'test.mp4':
  Duration: 00:00:10.00, start: 0.000000, bitrate: 93 kb/s
  Stream #0:0: Video: h264 (avc1 / 0x31637661), yuv420p, 24 fps, 24 tbr`
		p := &Prober{FfmpegPath: fixFakeFfmpeg(t, dump)}

		_, err := p.ExtractMetadata("test.mp4", FPSSourceTBR)
		assert.ErrorIs(t, err, ErrInfoParse)
	})

	t.Run("Unparsable rotation metadata", func(t *testing.T) {
		dump := `Input #0, mov, from 'test.mp4':
  Metadata:
    rotate          : N/A
  Duration: 00:00:10.00, start: 0.000000, bitrate: 93 kb/s
  Stream #0:0: Video: h264, yuv420p, 1280x720, 24 fps, 24 tbr`
		p := &Prober{FfmpegPath: fixFakeFfmpeg(t, dump)}

		_, err := p.ExtractMetadata("test.mp4", FPSSourceTBR)
		assert.ErrorIs(t, err, ErrInfoParse)
	})

	t.Run("Zero frame rate from frame counting fallback", func(t *testing.T) {
		// A 0/1 rate would make the derived duration infinite.
		p := &Prober{
			FfmpegPath:  fixFakeFfmpeg(t, fixNoDurationDump),
			FfprobePath: fixFakeFfprobe(t, "0/1|166"),
		}

		_, err := p.ExtractMetadata("test.mkv", FPSSourceTBR)
		assert.ErrorIs(t, err, ErrInfoParse)
	})

	t.Run("Unknown fps source", func(t *testing.T) {
		p := &Prober{FfmpegPath: "/bin/false"}
		_, err := p.ExtractMetadata("test.mp4", FPSSource("tbc"))
		assert.Error(t, err)
	})

	t.Run("Missing ffmpeg binary", func(t *testing.T) {
		p := &Prober{FfmpegPath: "/non/existent/ffmpeg"}
		_, err := p.ExtractMetadata("test.mp4", FPSSourceTBR)
		assert.Error(t, err)
	})
}

func Test_ExtractMetadata_AudioOnly(t *testing.T) {
	dump := `Input #0, mp3, from 'test.mp3':
  Duration: 00:03:04.32, start: 0.000000, bitrate: 128 kb/s
  Stream #0:0: Audio: mp3, 48000 Hz, stereo, fltp, 128 kb/s`
	p := &Prober{FfmpegPath: fixFakeFfmpeg(t, dump)}

	got, err := p.ExtractMetadata("test.mp3", FPSSourceTBR)
	require.NoError(t, err)

	assert.False(t, got.VideoFound)
	assert.Equal(t, float64(0), got.VideoFPS)
	assert.Equal(t, 0, got.VideoFrameCount)
	assert.Equal(t, Dimensions{}, got.VideoSize)
	assert.True(t, got.AudioFound)
	assert.Equal(t, 48000, got.AudioSampleRate)
	assert.InDelta(t, 184.32, got.Duration, 1e-9)
}
