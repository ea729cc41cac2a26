// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"fmt"
	"slices"

	"github.com/zephyrup/zephyrup/internal/platform"
)

// Probe kinds.
const (
	// ProbeBinary runs a command and treats exit status 0 as installed.
	ProbeBinary ProbeKind = iota + 1
	// ProbePackage asks the family's package database about a package.
	ProbePackage
	// ProbeShell evaluates a POSIX expression and treats exit status 0 as installed.
	ProbeShell
)

type (
	// ProbeKind selects how an Entry is checked.
	ProbeKind int

	// Probe describes one check.
	Probe struct {
		Kind ProbeKind
		// Command and Args are used by ProbeBinary.
		Command string
		Args    []string
		// Version records the first line of a successful ProbeBinary's output.
		Version bool
		// Package is used by ProbePackage.
		Package string
		// Script is used by ProbeShell.
		Script string
	}

	// Entry is one catalog line: a logical dependency and how to detect it.
	Entry struct {
		Name     string
		Probe    Probe
		Critical bool
	}

	// Catalog maps a family to its ordered entries.
	Catalog map[platform.Family][]Entry
)

// String returns the probe kind name.
func (k ProbeKind) String() string {
	switch k {
	case ProbeBinary:
		return "binary"
	case ProbePackage:
		return "package"
	case ProbeShell:
		return "shell"
	default:
		return "unknown"
	}
}

// Binary probes command with args and records its version line.
func Binary(command string, args ...string) Probe {
	return Probe{Kind: ProbeBinary, Command: command, Args: args, Version: true}
}

// Runs probes command with args by exit status only.
func Runs(command string, args ...string) Probe {
	return Probe{Kind: ProbeBinary, Command: command, Args: args}
}

// Package probes the OS package database for name.
func Package(name string) Probe {
	return Probe{Kind: ProbePackage, Package: name}
}

// Shell probes with a POSIX expression.
func Shell(script string) Probe {
	return Probe{Kind: ProbeShell, Script: script}
}

// String describes the probe for diagnostics.
func (p Probe) String() string {
	switch p.Kind {
	case ProbeBinary:
		return fmt.Sprintf("%s %v", p.Command, p.Args)
	case ProbePackage:
		return "package " + p.Package
	case ProbeShell:
		return "sh: " + p.Script
	default:
		return "unknown probe"
	}
}

func required(name string, p Probe) Entry { return Entry{Name: name, Probe: p, Critical: true} }
func optional(name string, p Probe) Entry { return Entry{Name: name, Probe: p} }

// linuxBinaries are shared by every Linux family.
var linuxBinaries = []Entry{
	required("Git", Binary("git", "--version")),
	required("CMake", Binary("cmake", "--version")),
	required("Ninja", Binary("ninja", "--version")),
	required("Gperf", Binary("gperf", "--version")),
	required("CCache", Binary("ccache", "--version")),
	required("Dfu-util", Binary("dfu-util", "--version")),
	required("DTC", Binary("dtc", "--version")),
	required("Wget", Binary("wget", "--version")),
	required("Python 3", Binary("python3", "--version")),
	required("XZ Utils", Binary("xz", "--version")),
	required("File", Binary("file", "--version")),
	required("Make", Binary("make", "--version")),
	required("GCC", Binary("gcc", "--version")),
	required("G++", Binary("g++", "--version")),
}

var pythonVenv = required("python3-venv", Runs("python3", "-m", "venv", "--help"))

// DefaultCatalog returns the built-in catalog. The result may be modified freely.
func DefaultCatalog() Catalog {
	return Catalog{
		platform.Debian: concat(linuxBinaries, []Entry{
			required("python3-dev", Package("python3-dev")),
			pythonVenv,
			optional("python3-tk", Package("python3-tk")),
			required("libsdl2-dev", Package("libsdl2-dev")),
			required("libmagic1", Package("libmagic1")),
			optional("gcc-multilib", Package("gcc-multilib")),
			optional("g++-multilib", Package("g++-multilib")),
		}),
		platform.Fedora: concat(linuxBinaries, []Entry{
			required("python3-dev", Package("python3-devel")),
			pythonVenv,
			optional("python3-tk", Package("python3-tkinter")),
			required("libsdl2-dev", Package("sdl2-compat-devel")),
			required("libmagic1", Package("file-libs")),
			optional("gcc-multilib", Package("glibc-devel.i686")),
			optional("g++-multilib", Package("libstdc++-devel.i686")),
		}),
		// Unknown distributions try both package databases.
		platform.Linux: concat(linuxBinaries, []Entry{
			required("python3-dev", Shell("dpkg -l | grep python3-dev || rpm -qa | grep python3-devel")),
			pythonVenv,
			optional("python3-tk", Shell("dpkg -l | grep python3-tk || rpm -qa | grep python3-tkinter")),
			required("libsdl2-dev", Shell("dpkg -l | grep libsdl2-dev || rpm -qa | grep sdl2-compat-devel")),
			required("libmagic1", Shell("dpkg -l | grep libmagic1 || rpm -qa | grep file-libs")),
			optional("gcc-multilib", Shell(`dpkg -l | grep gcc-multilib || rpm -qa | grep "glibc-devel.*i686"`)),
			optional("g++-multilib", Shell(`dpkg -l | grep g++-multilib || rpm -qa | grep "libstdc++-devel.*i686"`)),
		}),
		platform.Windows: {
			required("CMake", Binary("cmake", "--version")),
			required("Ninja", Binary("ninja", "--version")),
			required("Gperf", Binary("gperf", "--version")),
			required("Python 3.12", Binary("python", "--version")),
			required("Git", Binary("git", "--version")),
			required("DTC", Binary("dtc", "--version")),
			required("Wget", Binary("wget", "--version")),
			required("7-Zip", Binary("7z", "--help")),
		},
		platform.Darwin: {
			required("Git", Binary("git", "--version")),
			required("CMake", Binary("cmake", "--version")),
			required("Ninja", Binary("ninja", "--version")),
			required("Gperf", Binary("gperf", "--version")),
			required("Python 3", Binary("python3", "--version")),
			required("CCache", Binary("ccache", "--version")),
			required("DTC", Binary("dtc", "--version")),
			required("Wget", Binary("wget", "--version")),
			required("libmagic", Package("libmagic")),
			optional("QEMU", Binary("qemu-system-x86_64", "--version")),
		},
	}
}

func concat(parts ...[]Entry) []Entry {
	return slices.Concat(parts...)
}
