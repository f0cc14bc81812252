// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Media metadata extraction by scraping ffmpeg diagnostic output.
//
// ffmpeg writes its info dump to stderr, not stdout, and the bare "-i" form
// used here exits non-zero by design (there is no output file). Both quirks
// are contained in this file so the parsing rules in parse.go can stay pure.

package media

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/google/shlex"

	"github.com/evolution-gaming/mediakit/internal/logging"
	"github.com/evolution-gaming/mediakit/internal/lw"
	"github.com/evolution-gaming/mediakit/internal/tools"
)

var (
	ErrMediaNotFound = errors.New("media file not found")
	ErrInfoParse     = errors.New("cannot parse media info")
)

// DefaultInfoTemplate is the ffmpeg invocation producing the info dump. For
// still animation media a null muxed full decode is requested so that the
// complete duration is known by the end of output.
const DefaultInfoTemplate = "-i {{.MediaFile}}{{if .NullSink}} -f null {{.NullSink}}{{end}}"

// DefaultCaptureLimit bounds captured diagnostic output. ffmpeg can be very
// verbose on long decodes, the retained tail is plenty for all scraped
// tokens.
const DefaultCaptureLimit = 1 << 20

// Compact ffprobe output of the frame counting fallback, e.g. "15/1|166".
var reRateAndCount = regexp.MustCompile(`(\d+)/(\d+)\|(\d+)`)

// Prober extracts media metadata via external ffmpeg family tools.
type Prober struct {
	// Path to ffmpeg executable.
	FfmpegPath string
	// Path to ffprobe executable, used only by the frame counting fallback.
	FfprobePath string
	// Template for ffmpeg info dump arguments.
	InfoTemplate string
	// Cap on captured diagnostic output in bytes.
	CaptureLimit int
}

// Make sure Prober implements MetadataExtractor interface.
var _ MetadataExtractor = (*Prober)(nil)

// NewProber will create a Prober with tools auto-detected on $PATH.
func NewProber() (*Prober, error) {
	ffmpeg, err := tools.FfmpegPath()
	if err != nil {
		return nil, fmt.Errorf("NewProber: %w", err)
	}
	ffprobe, err := tools.FfprobePath()
	if err != nil {
		return nil, fmt.Errorf("NewProber: %w", err)
	}
	return &Prober{
		FfmpegPath:   ffmpeg,
		FfprobePath:  ffprobe,
		InfoTemplate: DefaultInfoTemplate,
		CaptureLimit: DefaultCaptureLimit,
	}, nil
}

// ExtractMetadata extracts structural metadata for given media file.
//
// The returned record is best-effort: recoverable parse gaps degrade to
// defaults with logged warnings. A missing file, unreadable video dimensions
// or an unreadable rotation value fail the extraction.
func (p *Prober) ExtractMetadata(mediaFile string, fpsSource FPSSource) (Metadata, error) {
	var meta Metadata

	switch fpsSource {
	case FPSSourceTBR, FPSSourceFPS:
	case "":
		fpsSource = FPSSourceTBR
	default:
		return meta, fmt.Errorf("unknown fps source %q", fpsSource)
	}

	stillAnim := strings.EqualFold(filepath.Ext(mediaFile), ".gif")
	infos, err := p.rawMetadata(mediaFile, stillAnim)
	if err != nil {
		return meta, err
	}
	lines := splitLines(infos)

	meta.Duration = parseDuration(lines, stillAnim)

	videoLine := ""
	for _, l := range lines {
		if isVideoLine(l) {
			videoLine = l
			break
		}
	}
	meta.VideoFound = videoLine != ""

	if meta.VideoFound {
		if meta.Duration == 0 {
			// The info dump did not resolve duration, count frames the
			// expensive way.
			fps, frames, err := p.countFrames(mediaFile)
			if err != nil {
				return meta, err
			}
			meta.VideoFPS = fps
			meta.VideoFrameCount = frames
			meta.VideoDuration = float64(frames) / fps
			meta.Duration = meta.VideoDuration
		} else {
			meta.VideoFPS = parseVideoFPS(videoLine, fpsSource)
			meta.VideoFrameCount = int(meta.Duration*meta.VideoFPS) + 1
			meta.VideoDuration = meta.Duration
		}

		meta.VideoSize, err = parseVideoSize(videoLine)
		if err != nil {
			return meta, err
		}
		meta.Size = meta.VideoSize
		meta.VideoFPS = AdjustFrameRate(meta.VideoFPS)

		meta.VideoRotation, err = parseRotation(lines)
		if err != nil {
			return meta, err
		}
	}

	meta.AudioFound, meta.AudioSampleRate = parseAudio(lines)
	return meta, nil
}

// rawMetadata runs the ffmpeg info dump and returns its diagnostic output.
func (p *Prober) rawMetadata(mediaFile string, stillAnim bool) (string, error) {
	tpl := p.InfoTemplate
	if tpl == "" {
		tpl = DefaultInfoTemplate
	}
	limit := p.CaptureLimit
	if limit <= 0 {
		limit = DefaultCaptureLimit
	}

	// Template requires a struct with exported fields.
	tplContext := struct {
		MediaFile string
		NullSink  string
	}{MediaFile: mediaFile}
	if stillAnim {
		tplContext.NullSink = os.DevNull
	}

	var rendered strings.Builder
	t, err := template.New("ffmpeg-info").Parse(tpl)
	if err != nil {
		return "", fmt.Errorf("rawMetadata() parse template: %w", err)
	}
	if err := t.Execute(&rendered, tplContext); err != nil {
		return "", fmt.Errorf("rawMetadata() execute template: %w", err)
	}
	args, err := shlex.Split(rendered.String())
	if err != nil {
		return "", fmt.Errorf("rawMetadata() prepare command: %w", err)
	}

	out := lw.NewTailWriter(limit)
	cmd := exec.Command(p.FfmpegPath, args...) //#nosec G204
	cmd.Stderr = out
	logging.Debugf("Running: %s", cmd)

	err = cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return "", fmt.Errorf("rawMetadata() exec error: %w", err)
	}
	// The bare "-i" invocation exits non-zero, the info dump on stderr is
	// still the product. An actual failure shows up in the dump itself.
	if out.Truncated() {
		logging.Debugf("Diagnostic output truncated to last %d bytes", limit)
	}

	// Decode permissively, stray invalid bytes must not fail the whole parse.
	infos := strings.ToValidUTF8(string(out.Bytes()), "�")

	if strings.Contains(lastLine(infos), notFoundSig) {
		return "", fmt.Errorf("media file %s: %w", mediaFile, ErrMediaNotFound)
	}
	return infos, nil
}

// countFrames is the expensive fallback for media whose info dump does not
// resolve duration: ffprobe decodes the whole video stream and reports the
// declared rate with the exact decoded frame count.
func (p *Prober) countFrames(mediaFile string) (fps float64, frames int, err error) {
	args := []string{
		"-show_entries", "stream=r_frame_rate,nb_read_frames",
		"-select_streams", "v",
		"-count_frames",
		"-of", "compact=p=0:nk=1",
		"-v", "0",
		mediaFile,
	}
	cmd := exec.Command(p.FfprobePath, args...) //#nosec G204
	logging.Debugf("Running: %s", cmd)

	out, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("countFrames() exec error: %w", err)
	}

	m := reRateAndCount.FindStringSubmatch(string(out))
	if m == nil {
		return 0, 0, fmt.Errorf("countFrames() unexpected ffprobe output %q: %w", out, ErrInfoParse)
	}
	num, _ := strconv.Atoi(m[1])
	den, _ := strconv.Atoi(m[2])
	frames, _ = strconv.Atoi(m[3])
	if num == 0 || den == 0 {
		return 0, 0, fmt.Errorf("countFrames() unusable frame rate %d/%d in %q: %w", num, den, out, ErrInfoParse)
	}
	return float64(num) / float64(den), frames, nil
}

// splitLines splits diagnostic output into lines tolerating CRLF endings.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// lastLine returns the last non-empty line of s.
func lastLine(s string) string {
	lines := splitLines(strings.TrimRight(s, "\r\n "))
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
