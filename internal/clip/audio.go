// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clip

// AudioClip is a minimal time-indexed sample source attached to a video
// clip. Sampling, mixing and rendering belong to the timeline renderer, the
// clip only carries the sample function so that timeline operations can be
// propagated to it.
type AudioClip struct {
	// MakeFrame returns per-channel sample values at time t.
	MakeFrame func(t float64) []float64
	// SampleRate in Hz.
	SampleRate int
	// Duration in seconds, 0 if unlimited.
	Duration float64
}

// TimeTransform returns a copy whose samples are read at remapped times.
func (a *AudioClip) TimeTransform(tf func(float64) float64) *AudioClip {
	src := a.MakeFrame
	out := *a
	out.MakeFrame = func(t float64) []float64 { return src(tf(t)) }
	return &out
}
