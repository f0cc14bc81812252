// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// mediakit tool's bitrate subcommand implementation.

package main

import (
	"flag"
	"fmt"
	"path"
	"strings"

	"github.com/evolution-gaming/mediakit/internal/analysis"
	"github.com/evolution-gaming/mediakit/internal/logging"
)

// Make sure BitrateApp implements Commander interface.
var _ Commander = (*BitrateApp)(nil)

// BitrateApp is bitrate subcommand context that implements Commander interface.
type BitrateApp struct {
	// Configuration object
	cfg *Config
	// FlagSet instance
	fs *flag.FlagSet
	// Input video file path
	flInFile string
	// Plot output file
	flOutFile string
	// Global flags
	gf globalFlags
}

// CreateBitrateCommand will create Commander instance from BitrateApp.
func CreateBitrateCommand() Commander {
	longHelp := `Subcommand "bitrate" will create bitrate plot for given video file.`
	app := &BitrateApp{
		fs: flag.NewFlagSet("bitrate", flag.ContinueOnError),
		gf: globalFlags{},
	}
	app.gf.Register(app.fs)
	app.fs.StringVar(&app.flInFile, "i", "", "Input video file (mandatory)")
	app.fs.StringVar(&app.flOutFile, "o", "", "File to save plot to")

	app.fs.Usage = func() {
		printSubCommandUsage(longHelp, app.fs)
	}
	return app
}

func (a *BitrateApp) Name() string {
	return a.fs.Name()
}

func (a *BitrateApp) Help() {
	a.fs.Usage()
}

// Run is main entry point into BitrateApp execution.
func (a *BitrateApp) Run(args []string) error {
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

	if a.flInFile == "" {
		a.fs.Usage()
		return &AppError{
			exitCode: 2,
			msg:      "mandatory option -i is missing",
		}
	}

	if a.flOutFile == "" {
		base := path.Base(a.flInFile)
		base = strings.TrimSuffix(base, path.Ext(base))
		a.flOutFile = base + ".png"
	}

	logging.Infof("Output will be written to:\n\t%s\n", a.flOutFile)

	if err := analysis.PlotBitrate(a.flInFile, a.flOutFile, a.cfg.FfprobePath.Value()); err != nil {
		return &AppError{
			exitCode: 1,
			msg:      err.Error(),
		}
	}

	return nil
}
