// SPDX-License-Identifier: MPL-2.0

// Package inventory probes the host for the tools and libraries a Zephyr workspace needs.
//
// The Catalog maps each platform.Family to an ordered list of entries. Every entry names
// one of three probe kinds: run a binary with a version flag, query the OS package
// database, or evaluate a short shell expression. Adding a distribution means adding
// catalog and package-name data; the Checker itself has no per-OS branches.
//
// Probing never mutates the system. A probe that cannot even start (the tool is absent)
// reports Installed=false and never fails the check as a whole.
package inventory
