// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Scraping rules for ffmpeg diagnostic text.
//
// The info dump is a human readable log, not a formal grammar. Each rule
// below is kept small and independently testable so that drift between
// ffmpeg versions surfaces as an isolated rule failure.

package media

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/evolution-gaming/mediakit/internal/logging"
)

// Markers locating interesting lines in the info dump.
const (
	durationMarker = "Duration: "
	progressMarker = "frame="
	videoMarker    = " Video: "
	audioMarker    = " Audio: "
	rotationMarker = "rotate          :"
	notFoundSig    = "No such file or directory"
)

var (
	// Timestamp of the HH:MM:SS.ff form.
	reTimestamp = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2}\.\d{2})`)
	// Any WIDTHxHEIGHT token, used to qualify a video stream line.
	reAnySize = regexp.MustCompile(`\d+x\d+`)
	// WIDTHxHEIGHT bounded by comma or space terminator.
	reVideoSize = regexp.MustCompile(` (\d+)x(\d+)[, ]`)
	// Declared rate, sometimes k-suffixed, e.g. "25 tbr", "29.97 tbr", "12k tbr".
	reTBR = regexp.MustCompile(` (\d+(?:\.\d+)?)(k?) tbr`)
	// Measured rate, e.g. "23.98 fps".
	reFPS = regexp.MustCompile(` ([0-9.]+)(k?) fps`)
	// Trailing integer on a rotation metadata line.
	reTrailingInt = regexp.MustCompile(`(\d+)$`)
	// Sample rate token on an audio stream line.
	reSampleRate = regexp.MustCompile(` (\d+) Hz`)
)

// fallbackFPS is substituted when both rate indicators are absent or insane.
const fallbackFPS = 30

// maxSaneFPS is the sanity bound above which a parsed rate is considered
// mis-parsed garbage.
const maxSaneFPS = 1000

// parseDuration extracts overall media duration in seconds.
//
// For still animation media the value on the first Duration line may be an
// intermediate approximation, the authoritative timestamp sits on the last
// decode progress line instead. Absence of a matching line or timestamp
// yields 0, callers are expected to fall back to frame counting.
func parseDuration(lines []string, stillAnim bool) float64 {
	marker := durationMarker
	if stillAnim {
		marker = progressMarker
	}

	var line string
	for _, l := range lines {
		if strings.Contains(l, marker) {
			line = l
			if !stillAnim {
				break
			}
		}
	}
	if line == "" {
		return 0
	}

	m := reTimestamp.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	return timestampToSeconds(m)
}

// timestampToSeconds converts reTimestamp submatches to seconds.
func timestampToSeconds(m []string) float64 {
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	ss, _ := strconv.ParseFloat(m[3], 64)
	return float64(hh)*3600 + float64(mm)*60 + ss
}

// isVideoLine reports if given info dump line describes a video stream.
func isVideoLine(l string) bool {
	return strings.Contains(l, videoMarker) && reAnySize.MatchString(l)
}

// parseVideoSize extracts pixel dimensions from a video stream line. A video
// line without a well formed size token is a hard failure, downstream sizing
// cannot proceed without it.
func parseVideoSize(line string) (Dimensions, error) {
	var d Dimensions
	m := reVideoSize.FindStringSubmatch(line)
	if m == nil {
		return d, fmt.Errorf("failed to read video dimensions, offending line:\n%s\n%w", line, ErrInfoParse)
	}
	d.Width, _ = strconv.Atoi(m[1])
	d.Height, _ = strconv.Atoi(m[2])
	return d, nil
}

// parseVideoFPS resolves the frame rate from a video stream line.
//
// The line typically carries two indicators, either of which can be absent
// or garbage. The one matching fpsSource is primary, the other is fallback
// and 30 is the last resort: frame rate extraction never fails outright.
func parseVideoFPS(line string, fpsSource FPSSource) float64 {
	tbr, tbrOK := extractRate(line, reTBR)
	if !tbrOK {
		logging.Warnf("TBR field not found in: %s", line)
	}
	fps, fpsOK := extractRate(line, reFPS)
	if !fpsOK {
		logging.Warnf("FPS field not found in: %s", line)
	}

	primary, fallback := tbr, fps
	if fpsSource == FPSSourceFPS {
		primary, fallback = fps, tbr
	}

	switch {
	case primary != 0 && primary <= maxSaneFPS:
		return primary
	case fallback != 0 && fallback <= maxSaneFPS:
		logging.Warnf("Got invalid frame rate %v by %q key, using alternative value %v", primary, fpsSource, fallback)
		return fallback
	default:
		logging.Warnf("Got invalid frame rate by both keys (tbr=%v fps=%v), using default %v", tbr, fps, fallbackFPS)
		return fallbackFPS
	}
}

// extractRate pulls a numeric rate token out of line, honoring the "k"
// multiplier suffix.
func extractRate(line string, re *regexp.Regexp) (float64, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if m[2] == "k" {
		v *= 1000
	}
	return v, true
}

// AdjustFrameRate corrects known encoder rounding of broadcast frame rates.
//
// Rates are frequently reported as a truncated decimal approximation of
// x*1000/1001 (e.g. 23.98 instead of 24000/1001). A value within 1% relative
// tolerance of one of the exact fractions is snapped to that fraction. An
// exact integer rate stays untouched.
func AdjustFrameRate(fps float64) float64 {
	const coef = 1000.0 / 1001.0
	for _, x := range []float64{23, 24, 25, 30, 50} {
		if fps != x && roughlyEqual(fps, x*coef, 0.01) {
			return x * coef
		}
	}
	return fps
}

func roughlyEqual(a, b, epsilon float64) bool {
	return math.Abs(a/b-1) < epsilon
}

// parseRotation extracts the rotation metadata value in degrees.
//
// Absence of a rotation line means no rotation. A rotation line without a
// parsable trailing integer is a hard failure.
func parseRotation(lines []string) (int, error) {
	for _, l := range lines {
		if !strings.Contains(l, rotationMarker) {
			continue
		}
		m := reTrailingInt.FindStringSubmatch(l)
		if m == nil {
			return 0, fmt.Errorf("failed to read video rotation, offending line:\n%s\n%w", l, ErrInfoParse)
		}
		rotation, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("failed to read video rotation, offending line:\n%s\n%w", l, ErrInfoParse)
		}
		return rotation, nil
	}
	return 0, nil
}

// parseAudio detects an audio stream and its sample rate. A missing sample
// rate token leaves the rate unknown (0), not an error.
func parseAudio(lines []string) (found bool, sampleRate int) {
	for _, l := range lines {
		if !strings.Contains(l, audioMarker) {
			continue
		}
		found = true
		if m := reSampleRate.FindStringSubmatch(l); m != nil {
			sampleRate, _ = strconv.Atoi(m[1])
		} else {
			logging.Warnf("Sample rate not found in: %s", l)
		}
		return found, sampleRate
	}
	return false, 0
}
