// SPDX-License-Identifier: MPL-2.0

// Package platform identifies the host operating system family.
//
// Dependency catalogs and package-name tables are keyed by Family, so supporting a new
// distribution is a matter of adding a Family and its data.
package platform

import (
	"bufio"
	"io"
	"os"
	goruntime "runtime"
	"slices"
	"strings"
)

// Known families.
const (
	Debian      Family = "debian"
	Fedora      Family = "fedora"
	Windows     Family = "windows"
	Darwin      Family = "darwin"
	Linux       Family = "linux"
	Unsupported Family = "unsupported"
)

// osReleasePaths are read in order; the first readable one wins.
var osReleasePaths = []string{"/etc/os-release", "/usr/lib/os-release"}

// Family is an operating system family with a shared package manager.
type Family string

// String returns the family name.
func (f Family) String() string { return string(f) }

// Supported reports whether f has a dependency catalog.
func (f Family) Supported() bool {
	return f != Unsupported && f != ""
}

// Detect returns the Family of the running host.
func Detect() Family {
	if goruntime.GOOS != "linux" {
		return FromGOOS(goruntime.GOOS, nil)
	}
	for _, path := range osReleasePaths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		release := ParseOSRelease(f)
		_ = f.Close()
		return FromGOOS(goruntime.GOOS, release)
	}
	return Linux
}

// FromGOOS maps a GOOS value and parsed os-release fields to a Family.
// On Linux, ID and ID_LIKE select Debian or Fedora; anything else is the generic Linux family.
func FromGOOS(goos string, osRelease map[string]string) Family {
	switch goos {
	case "windows":
		return Windows
	case "darwin":
		return Darwin
	case "linux":
	default:
		return Unsupported
	}

	ids := append([]string{osRelease["ID"]}, strings.Fields(osRelease["ID_LIKE"])...)
	switch {
	case slices.ContainsFunc(ids, isDebianLike):
		return Debian
	case slices.ContainsFunc(ids, isFedoraLike):
		return Fedora
	default:
		return Linux
	}
}

func isDebianLike(id string) bool {
	return id == "debian" || id == "ubuntu"
}

func isFedoraLike(id string) bool {
	return id == "fedora" || id == "rhel" || id == "centos"
}

// ParseOSRelease reads KEY=value lines in os-release(5) format.
func ParseOSRelease(r io.Reader) map[string]string {
	out := make(map[string]string)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[key] = strings.ToLower(strings.Trim(value, `"'`))
	}
	return out
}
