// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Per-frame statistics sourced from ffprobe.

package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"runtime"
	"sort"

	"github.com/evolution-gaming/mediakit/internal/logging"
)

// FrameStat is per-frame meta-data for a single video frame.
type FrameStat struct {
	KeyFrame     bool
	DurationTime float64
	PtsTime      float64
	Size         uint64
}

func (f *FrameStat) UnmarshalJSON(data []byte) error {
	// By convention Unmarshalers implement UnmarshalJSON([]byte("null")) as a
	// no-op.
	if string(data) == "null" {
		return nil
	}
	var ps packetStat
	if err := json.Unmarshal(data, &ps); err != nil {
		return fmt.Errorf("FrameStat.UnmarshalJSON: %w", err)
	}

	// Key-frames are flagged "K_", everything else is treated as a P-frame
	// even though B-frames land in the same bucket.
	f.KeyFrame = ps.Flags == "K_"
	f.DurationTime = ps.DurationTime
	f.PtsTime = ps.PtsTime
	f.Size = ps.Size

	return nil
}

// packetStat is per-packet meta-data as provided by ffprobe. For a video
// stream an AVPacket maps directly to a video frame.
type packetStat struct {
	Flags        string  `json:"flags"`
	DurationTime float64 `json:"duration_time,string"`
	PtsTime      float64 `json:"pts_time,string"`
	Size         uint64  `json:"size,string"`
}

// GetFrameStats collects per-frame stats for videoFile's video stream by
// running ffprobe at ffprobePath.
func GetFrameStats(videoFile, ffprobePath string) ([]FrameStat, error) {
	ffprobeArgs := []string{
		"-hide_banner",
		"-loglevel", "quiet",
		"-threads", fmt.Sprint(runtime.NumCPU()),
		"-select_streams", "v",
		"-show_entries",
		"packet=flags,pts_time,size,duration_time",
		"-of", "json=compact=1",
		videoFile,
	}

	//#nosec G204
	cmd := exec.Command(ffprobePath, ffprobeArgs...)
	logging.Debugf("Running: %s\n", cmd)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("GetFrameStats() running ffprobe: %w", err)
	}

	// Need a dummy struct for first level.
	frames := &struct {
		Packets []FrameStat
	}{}

	if err := json.Unmarshal(out, &frames); err != nil {
		return nil, fmt.Errorf("GetFrameStats() unmarshaling ffprobe output: %w", err)
	}

	return frames.Packets, nil
}

// streamDuration calculates video duration based on data from FrameStat
// slice.
func streamDuration(fs []FrameStat) float64 {
	pts := make([]float64, 0, len(fs))
	var acc float64
	for _, v := range fs {
		acc += v.DurationTime
		pts = append(pts, v.PtsTime)
	}
	// There is no guarantee that PTS-es are in increasing order.
	sort.Float64s(pts)
	return math.Max(pts[len(pts)-1]-pts[0]+fs[0].DurationTime, acc)
}
