// SPDX-License-Identifier: MPL-2.0

package inventory

import "github.com/zephyrup/zephyrup/internal/platform"

// PackageNames maps a family to logical dependency names and the OS packages providing them.
type PackageNames map[platform.Family]map[string][]string

// DefaultPackageNames returns the built-in package-name tables.
func DefaultPackageNames() PackageNames {
	return PackageNames{
		platform.Debian: {
			"Git":          {"git"},
			"CMake":        {"cmake"},
			"Ninja":        {"ninja-build"},
			"Gperf":        {"gperf"},
			"CCache":       {"ccache"},
			"Dfu-util":     {"dfu-util"},
			"DTC":          {"device-tree-compiler"},
			"Wget":         {"wget"},
			"Python 3":     {"python3"},
			"XZ Utils":     {"xz-utils"},
			"File":         {"file"},
			"Make":         {"make"},
			"GCC":          {"gcc"},
			"G++":          {"g++"},
			"python3-dev":  {"python3-dev"},
			"python3-venv": {"python3-venv"},
			"python3-tk":   {"python3-tk"},
			"libsdl2-dev":  {"libsdl2-dev"},
			"libmagic1":    {"libmagic1"},
			"gcc-multilib": {"gcc-multilib"},
			"g++-multilib": {"g++-multilib"},
		},
		platform.Fedora: {
			"Git":      {"git"},
			"CMake":    {"cmake"},
			"Ninja":    {"ninja-build"},
			"Gperf":    {"gperf"},
			"CCache":   {"ccache"},
			"Dfu-util": {"dfu-util"},
			"DTC":      {"dtc"},
			"Wget":     {"wget"},
			"Python 3": {"python3"},
			"XZ Utils": {"xz"},
			"File":     {"file"},
			"Make":     {"make"},
			"GCC":      {"gcc"},
			"G++":      {"gcc-c++"},
			// venv ships with the interpreter on Fedora.
			"python3-dev":  {"python3-devel"},
			"python3-venv": {"python3"},
			"python3-tk":   {"python3-tkinter"},
			"libsdl2-dev":  {"sdl2-compat-devel"},
			"libmagic1":    {"file-libs"},
			"gcc-multilib": {"glibc-devel.i686"},
			"g++-multilib": {"libstdc++-devel.i686"},
		},
		platform.Windows: {
			"CMake":       {"Kitware.CMake"},
			"Ninja":       {"Ninja-build.Ninja"},
			"Gperf":       {"oss-winget.gperf"},
			"Python 3.12": {"Python.Python.3.12"},
			"Git":         {"Git.Git"},
			"DTC":         {"oss-winget.dtc"},
			"Wget":        {"wget"},
			"7-Zip":       {"7zip.7zip"},
		},
		platform.Darwin: {
			"Git":      {"git"},
			"CMake":    {"cmake"},
			"Ninja":    {"ninja"},
			"Gperf":    {"gperf"},
			"Python 3": {"python3"},
			"CCache":   {"ccache"},
			"DTC":      {"dtc"},
			"Wget":     {"wget"},
			"libmagic": {"libmagic"},
			"QEMU":     {"qemu"},
		},
	}
}

// Resolve returns the OS packages for the given dependencies, deduplicated in order,
// plus the names that have no mapping for family.
func (p PackageNames) Resolve(family platform.Family, deps []Dependency) (packages, unmapped []string) {
	table := p[family]
	seen := make(map[string]bool)
	for _, d := range deps {
		pkgs, ok := table[d.Name]
		if !ok {
			unmapped = append(unmapped, d.Name)
			continue
		}
		for _, pkg := range pkgs {
			if !seen[pkg] {
				seen[pkg] = true
				packages = append(packages, pkg)
			}
		}
	}
	return packages, unmapped
}
