// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/zephyrup/zephyrup/internal/issue"
	"github.com/zephyrup/zephyrup/internal/provision"
	"github.com/zephyrup/zephyrup/internal/runtime"
)

// outputSink returns the sink process output is streamed to. Child output is
// written unchanged; milestones are styled.
func (a *App) outputSink() runtime.LogSink {
	return runtime.NewWriterSink(a.stdout,
		runtime.WithCRLF(a.opts.crlf),
		runtime.WithDecorator(decorateEvent),
	)
}

func decorateEvent(ev runtime.LogEvent) string {
	if ev.Stream != runtime.StreamInfo {
		return ev.Text
	}
	line := strings.TrimRight(ev.Text, "\r\n")
	return milestoneStyle.Render("==> "+line) + "\n"
}

// pipelineError turns a pipeline failure into the error returned from RunE.
// The failing command and its captured output tail are printed first, so the
// user sees the cause without scrolling back.
func (a *App) pipelineError(operation string, err error) error {
	se, ok := provision.AsStepError(err)
	if !ok {
		return issue.NewErrorContext().
			WithOperation(operation).
			Wrap(err).
			BuildError()
	}

	renderStepError(a.stderr, se)

	ctx := issue.NewErrorContext().
		WithOperation(operation).
		WithIssue(issue.PipelineStepFailedId).
		Wrap(se)
	if se.Command != "" {
		ctx.WithResource(se.Command)
	}
	if errors.Is(err, provision.ErrInterpreterMissing) {
		ctx.WithSuggestion("Run 'zephyrup install <dir>' to create the virtual environment")
	}
	if errors.Is(err, provision.ErrVenvNotConfigured) {
		ctx.WithIssue(issue.VenvNotConfiguredId).
			WithSuggestion("Run 'zephyrup install <dir>' or 'zephyrup config set venv_path <dir>'")
	}
	return &ExitError{Code: exitCodeFor(se), Err: ctx.BuildError()}
}

func renderStepError(w io.Writer, se *provision.StepError) {
	fmt.Fprintf(w, "%s step %d (%s) failed\n", ErrorStyle.Render("✗"), se.Index+1, se.Name)
	if se.Command != "" {
		fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("command:"), CmdStyle.Render(se.Command))
	}
	if len(se.Tail) == 0 {
		return
	}
	fmt.Fprintln(w, SubtitleStyle.Render("  last output:"))
	for _, line := range se.Tail {
		fmt.Fprintln(w, tailStyle.Render(strings.TrimRight(line, "\r\n")))
	}
}

// renderIssue prints the catalog entry linked from err, if any.
func renderIssue(w io.Writer, err error) {
	entry := issue.CatalogIssue(err)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render("dark")
	if renderErr != nil {
		slog.Warn("failed to render issue catalog entry", "issueID", entry.Id(), "error", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
