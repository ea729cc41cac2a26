// SPDX-License-Identifier: MPL-2.0

// Package provision drives ordered sequences of external commands that set up
// a Zephyr development environment.
//
// A Plan is a list of Steps. The Pipeline runs them one at a time through a
// runtime Executor, announcing each step with a milestone line on the sink and
// stopping at the first failure, which is returned as a *StepError naming the
// step, its command line and the last lines it printed. Nothing is retried or
// rolled back; a failed run starts again from the first step.
//
// Two plans are provided:
//
//	InstallPlan        creates <target>/.venv, installs west and fetches Zephyr and its SDK
//	CreateProjectPlan  initializes a project workspace from a west manifest
//
// Steps after the virtual environment exists run with its activation overlay
// (see package venv) instead of an activated shell.
package provision
