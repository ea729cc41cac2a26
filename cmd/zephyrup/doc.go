// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for zephyrup.
//
// This package implements the Cobra command hierarchy for the zephyrup CLI:
// environment installation, Zephyr project workspaces, host dependency checks,
// west passthrough, an activated shell, and configuration management. Every
// command is built from an App, which holds the services the handlers use.
package cmd
