// SPDX-License-Identifier: MPL-2.0

// Package config handles zephyrup configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/zephyrup/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/zephyrup/config.cue on macOS, %APPDATA%\zephyrup\config.cue
// on Windows). It records where the Python virtual environment and the Zephyr checkout live,
// the package mirrors used during provisioning, the project manifest, and the project history.
//
// Files are validated against the embedded CUE schema (config_schema.cue) before they are
// merged over the defaults. Writes always replace the whole file.
package config
