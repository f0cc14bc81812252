// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Reusable parts of mediakit application and subcommand infrastructure.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/evolution-gaming/mediakit/internal/media"
	"github.com/jszwec/csvutil"
)

// Commander interface should be implemented by commands and sub-commands.
type Commander interface {
	Run([]string) error
	Name() string
	Help()
}

// AppError a custom error returned from CLI application.
//
// AppError is handy error type envisioned to be used in CLI's main.
// ExitCode() should be used as argument for os.Exit().
type AppError struct {
	msg      string
	exitCode int
}

// Error implements error interface for AppError.
func (e *AppError) Error() string {
	return e.msg
}

// ExitCode returns CLI application's exit code.
func (e *AppError) ExitCode() int {
	return e.exitCode
}

// printSubCommandUsage helper to format and print subcommand's usage.
func printSubCommandUsage(longHelp string, fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage of sub-command %s:\n\n", fs.Name())
	fmt.Fprintf(fs.Output(), "%s\n\n", longHelp)
	fs.PrintDefaults()
}

// namedMetadata wraps media.Metadata with the probed file's path.
type namedMetadata struct {
	File string `json:"file" csv:"file"`
	media.Metadata
}

// report contains probe execution results for all inspected files.
type report struct {
	Results []namedMetadata
}

// WriteJSON writes probe results as indented JSON.
func (r *report) WriteJSON(w io.Writer) error {
	res, err := json.MarshalIndent(r.Results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling probe results to JSON: %w", err)
	}
	if _, err := w.Write(res); err != nil {
		return fmt.Errorf("writing probe results: %w", err)
	}
	return nil
}

// WriteCSV writes probe results as CSV, one record per probed file.
func (r *report) WriteCSV(w io.Writer) error {
	res, err := csvutil.Marshal(r.Results)
	if err != nil {
		return fmt.Errorf("marshaling probe results to CSV: %w", err)
	}
	if _, err := w.Write(res); err != nil {
		return fmt.Errorf("writing probe results: %w", err)
	}
	return nil
}
