// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Media metadata related constructs.

package media

import (
	"fmt"
	"strconv"
	"strings"
)

// FPSSource selects which of the two frame rate indicators found on a video
// info line is to be trusted first.
type FPSSource string

const (
	// FPSSourceTBR prefers the container declared rate, "tbr" token.
	FPSSourceTBR FPSSource = "tbr"
	// FPSSourceFPS prefers the measured rate, "fps" token.
	FPSSourceFPS FPSSource = "fps"
)

// Dimensions hold pixel width and height of a video frame.
type Dimensions struct {
	Width  int
	Height int
}

// MarshalText implements encoding.TextMarshaler for Dimensions rendering the
// usual WIDTHxHEIGHT form.
func (d Dimensions) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%dx%d", d.Width, d.Height)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for Dimensions.
func (d *Dimensions) UnmarshalText(b []byte) error {
	w, h, ok := strings.Cut(string(b), "x")
	if !ok {
		return fmt.Errorf("malformed dimensions %q", b)
	}
	var err error
	if d.Width, err = strconv.Atoi(w); err != nil {
		return fmt.Errorf("malformed dimensions %q: %w", b, err)
	}
	if d.Height, err = strconv.Atoi(h); err != nil {
		return fmt.Errorf("malformed dimensions %q: %w", b, err)
	}
	return nil
}

// Metadata contains structural media file metadata as scraped from ffmpeg
// diagnostic output.
//
// Fields prefixed with Video or Audio keep their zero values unless the
// corresponding Found flag is set. AudioSampleRate of 0 means the rate is
// unknown even though an audio stream exists.
type Metadata struct {
	Duration        float64    `json:"duration" csv:"duration"`
	Size            Dimensions `json:"size" csv:"size"`
	VideoFound      bool       `json:"video_found" csv:"video_found"`
	VideoFPS        float64    `json:"video_fps,omitempty" csv:"video_fps"`
	VideoFrameCount int        `json:"video_frame_count,omitempty" csv:"video_frame_count"`
	VideoDuration   float64    `json:"video_duration,omitempty" csv:"video_duration"`
	VideoRotation   int        `json:"video_rotation,omitempty" csv:"video_rotation"`
	VideoSize       Dimensions `json:"video_size,omitempty" csv:"video_size"`
	AudioFound      bool       `json:"audio_found" csv:"audio_found"`
	AudioSampleRate int        `json:"audio_sample_rate,omitempty" csv:"audio_sample_rate"`
}

// MetadataExtractor is the interface that wraps ExtractMetadata method.
type MetadataExtractor interface {
	ExtractMetadata(mediaFile string, fpsSource FPSSource) (Metadata, error)
}
