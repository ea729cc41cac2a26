// SPDX-License-Identifier: MPL-2.0

// Package runtime spawns external processes for zephyrup and streams their output.
//
// Runner executes one ProcessSpec with stdout and stderr attached to pipes. Two readers
// reassemble the byte streams into lines (terminators preserved) and push them to a
// LogSink as LogEvents. Run returns only after both readers have drained and the child
// has exited, so no trailing output is lost.
//
// A process that never starts is reported through a SpawnError in Result.Error and
// produces no events. A process that exits non-zero is reported through Result.ExitCode.
//
// Shell runs short POSIX expressions (dependency probes such as
// "dpkg -l | grep libsdl2-dev") in the embedded mvdan.cc/sh interpreter, so probes
// behave the same on hosts without /bin/sh.
package runtime
