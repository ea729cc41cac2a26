// SPDX-License-Identifier: MPL-2.0

// Package project inspects and removes project workspaces created from the
// west manifest: the application CMakeLists.txt lives at app/app/ inside the
// workspace and its project() directive names the project.
package project
