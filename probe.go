// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// mediakit tool's probe subcommand implementation.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/evolution-gaming/mediakit/internal/logging"
	"github.com/evolution-gaming/mediakit/internal/media"
)

// Make sure ProbeApp implements Commander interface.
var _ Commander = (*ProbeApp)(nil)

// ProbeApp is probe subcommand context that implements Commander interface.
type ProbeApp struct {
	// Configuration object
	cfg *Config
	// FlagSet instance
	fs *flag.FlagSet
	// Frame rate source to prefer
	flFPSSource string
	// Output format: json or csv
	flFormat string
	// Write results to report file instead of stdout
	flReport bool
	// Global flags
	gf globalFlags
	// Probe results destination
	out io.Writer
}

// CreateProbeCommand will create Commander instance from ProbeApp.
func CreateProbeCommand() Commander {
	longHelp := `Subcommand "probe" will extract media file metadata for given media files.

Metadata is scraped from ffmpeg's diagnostic output: duration, video frame
size, frame rate, rotation and audio sample rate. Results are printed as
JSON by default.

Examples:

	mediakit probe video.mp4
	mediakit probe -format csv -report video1.mp4 video2.mkv
	mediakit probe -fps-source fps animation.gif`

	app := &ProbeApp{
		fs:  flag.NewFlagSet("probe", flag.ContinueOnError),
		gf:  globalFlags{},
		out: os.Stdout,
	}
	app.gf.Register(app.fs)
	app.fs.StringVar(&app.flFPSSource, "fps-source", string(media.FPSSourceTBR), `Preferred frame rate source, "tbr" or "fps"`)
	app.fs.StringVar(&app.flFormat, "format", "json", `Output format, "json" or "csv"`)
	app.fs.BoolVar(&app.flReport, "report", false, "Write results to configured report file instead of stdout")

	app.fs.Usage = func() {
		printSubCommandUsage(longHelp, app.fs)
	}
	return app
}

func (a *ProbeApp) Name() string {
	return a.fs.Name()
}

func (a *ProbeApp) Help() {
	a.fs.Usage()
}

// Run is main entry point into ProbeApp execution.
func (a *ProbeApp) Run(args []string) error {
	if err := a.fs.Parse(args); err != nil {
		return &AppError{
			exitCode: 2,
			msg:      "usage error",
		}
	}

	if a.gf.Debug {
		logging.EnableDebugLogger()
	}

	// Load application configuration.
	c, err := LoadConfig(a.gf.ConfFile)
	if err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}
	a.cfg = &c

	// Check if configuration is valid.
	if err := a.cfg.Verify(); err != nil {
		return &AppError{exitCode: 1, msg: fmt.Sprintf("configuration validation: %s", err)}
	}

	if a.fs.NArg() < 1 {
		a.fs.Usage()
		return &AppError{
			exitCode: 2,
			msg:      "at least one media file argument is required",
		}
	}

	if a.flFormat != "json" && a.flFormat != "csv" {
		return &AppError{
			exitCode: 2,
			msg:      fmt.Sprintf("unsupported output format: %s", a.flFormat),
		}
	}

	prober := &media.Prober{
		FfmpegPath:   a.cfg.FfmpegPath.Value(),
		FfprobePath:  a.cfg.FfprobePath.Value(),
		InfoTemplate: a.cfg.FfmpegInfoTemplate.Value(),
		CaptureLimit: a.cfg.CaptureLimit.Value(),
	}

	var rep report
	var failed int
	for _, mediaFile := range a.fs.Args() {
		m, err := prober.ExtractMetadata(mediaFile, media.FPSSource(a.flFPSSource))
		if err != nil {
			logging.Infof("Failed probing %s: %s", mediaFile, err)
			failed++
			continue
		}
		rep.Results = append(rep.Results, namedMetadata{File: mediaFile, Metadata: m})
	}

	out := a.out
	if a.flReport {
		reportFile := a.cfg.ReportFileName.Value()
		logging.Infof("Results will be written to:\n\t%s\n", reportFile)
		w, err := os.Create(reportFile)
		if err != nil {
			return &AppError{exitCode: 1, msg: err.Error()}
		}
		defer w.Close()
		out = w
	}

	if err := a.writeReport(out, &rep); err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}

	if failed != 0 {
		return &AppError{
			exitCode: 1,
			msg:      fmt.Sprintf("failed probing %d file(s)", failed),
		}
	}

	return nil
}

func (a *ProbeApp) writeReport(w io.Writer, rep *report) error {
	switch a.flFormat {
	case "csv":
		return rep.WriteCSV(w)
	default:
		return rep.WriteJSON(w)
	}
}
