// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// newLogger returns the slog logger used by every package. Output goes to w,
// normally stderr, so that process output on stdout stays clean.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "zephyrup",
		Level:  log.WarnLevel,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportTimestamp(true)
	}
	return slog.New(logger)
}
