// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"strings"

	"github.com/zephyrup/zephyrup/internal/platform"
	"github.com/zephyrup/zephyrup/internal/runtime"
)

type (
	// PackageQuery asks one package database whether a package is installed.
	PackageQuery struct {
		// Command builds the query for pkg.
		Command func(pkg string) runtime.ProcessSpec
		// Parse interprets the query result. version is empty when unknown.
		Parse func(result *runtime.Result) (installed bool, version string)
	}
)

// DefaultQueries returns the package database queries per family.
// Families without an entry cannot use ProbePackage.
func DefaultQueries() map[platform.Family]PackageQuery {
	return map[platform.Family]PackageQuery{
		platform.Debian:  dpkgQuery,
		platform.Fedora:  rpmQuery,
		platform.Darwin:  brewQuery,
		platform.Windows: wingetQuery,
	}
}

// dpkg-query exits 0 for packages it merely knows about, so the status has to be read.
var dpkgQuery = PackageQuery{
	Command: func(pkg string) runtime.ProcessSpec {
		return runtime.Command("dpkg-query", "-W", "--showformat=${Status} ${Version}\n", pkg)
	},
	Parse: func(r *runtime.Result) (bool, string) {
		if !r.Success() {
			return false, ""
		}
		const installed = "install ok installed"
		line := firstLine(r.Output)
		if !strings.HasPrefix(line, installed) {
			return false, ""
		}
		return true, strings.TrimSpace(strings.TrimPrefix(line, installed))
	},
}

var rpmQuery = PackageQuery{
	Command: func(pkg string) runtime.ProcessSpec {
		return runtime.Command("rpm", "-q", "--qf", "%{VERSION}-%{RELEASE}\n", pkg)
	},
	Parse: func(r *runtime.Result) (bool, string) {
		if !r.Success() {
			return false, ""
		}
		return true, firstLine(r.Output)
	},
}

var brewQuery = PackageQuery{
	Command: func(pkg string) runtime.ProcessSpec {
		return runtime.Command("brew", "list", "--versions", pkg)
	},
	Parse: func(r *runtime.Result) (bool, string) {
		line := firstLine(r.Output)
		if !r.Success() || line == "" {
			return false, ""
		}
		_, version, _ := strings.Cut(line, " ")
		return true, version
	},
}

var wingetQuery = PackageQuery{
	Command: func(pkg string) runtime.ProcessSpec {
		return runtime.Command("winget", "list", "--exact", "--id", pkg, "--accept-source-agreements").Hidden()
	},
	Parse: func(r *runtime.Result) (bool, string) {
		return r.Success(), ""
	},
}

// firstLine returns the first non-blank line of s, trimmed.
func firstLine(s string) string {
	for line := range strings.Lines(s) {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
