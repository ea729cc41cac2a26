// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"context"
	"log/slog"
	goruntime "runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zephyrup/zephyrup/internal/platform"
	"github.com/zephyrup/zephyrup/internal/runtime"
)

// defaultConcurrency bounds parallel probes; package managers hold database locks.
const defaultConcurrency = 4

type (
	// Capturer runs a process and returns its buffered output.
	Capturer interface {
		Capture(ctx context.Context, spec runtime.ProcessSpec) *runtime.Result
	}

	// ShellRunner evaluates a shell expression.
	ShellRunner interface {
		Run(ctx context.Context, script string, opts runtime.ShellOptions) *runtime.Result
	}

	// Dependency is the probe outcome for one catalog entry.
	Dependency struct {
		Name      string  `json:"name"`
		Installed bool    `json:"installed"`
		Version   *string `json:"version"`
		Critical  bool    `json:"critical"`
	}

	// EnvReport is the result of one CheckDependencies call. It is never cached.
	EnvReport struct {
		OS           string          `json:"os"`
		Family       platform.Family `json:"family"`
		Supported    bool            `json:"supported"`
		Dependencies []Dependency    `json:"dependencies"`
		AllSatisfied bool            `json:"all_satisfied"`
	}

	// Checker probes a catalog on the host.
	Checker struct {
		Family  platform.Family
		Catalog Catalog
		Queries map[platform.Family]PackageQuery
		Runner  Capturer
		Shell   ShellRunner
		// Concurrency bounds parallel probes. Zero uses a small default.
		Concurrency int
		// Timeout bounds each probe. Zero means no limit.
		Timeout time.Duration
	}
)

// NewChecker creates a Checker for family using the built-in catalog and host processes.
func NewChecker(family platform.Family) *Checker {
	return &Checker{
		Family:  family,
		Catalog: DefaultCatalog(),
		Queries: DefaultQueries(),
		Runner:  runtime.NewRunner(),
		Shell:   runtime.NewShell(),
	}
}

// Missing returns the dependencies that are not installed, in report order.
func (r EnvReport) Missing() []Dependency {
	var out []Dependency
	for _, d := range r.Dependencies {
		if !d.Installed {
			out = append(out, d)
		}
	}
	return out
}

// AllInstalled reports whether every dependency is installed.
func AllInstalled(deps []Dependency) bool {
	for _, d := range deps {
		if !d.Installed {
			return false
		}
	}
	return true
}

// CheckDependencies probes every catalog entry for the checker's family.
// The dependencies keep catalog order regardless of probe completion order.
// An unsupported family yields an empty, unsatisfied report that still names the host OS.
func (c *Checker) CheckDependencies(ctx context.Context) EnvReport {
	entries, ok := c.Catalog[c.Family]
	if !ok || !c.Family.Supported() {
		slog.Debug("no dependency catalog for host", "family", c.Family)
		return EnvReport{OS: goruntime.GOOS, Family: c.Family, Dependencies: []Dependency{}}
	}

	deps := make([]Dependency, len(entries))
	var g errgroup.Group
	g.SetLimit(c.concurrency())
	for i, entry := range entries {
		g.Go(func() error {
			deps[i] = c.probe(ctx, entry)
			return nil
		})
	}
	_ = g.Wait()

	return EnvReport{
		OS:           goruntime.GOOS,
		Family:       c.Family,
		Supported:    true,
		Dependencies: deps,
		AllSatisfied: AllInstalled(deps),
	}
}

func (c *Checker) concurrency() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return defaultConcurrency
}

func (c *Checker) probe(ctx context.Context, entry Entry) Dependency {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	dep := Dependency{Name: entry.Name, Critical: entry.Critical}
	var version string

	switch entry.Probe.Kind {
	case ProbeBinary:
		result := c.Runner.Capture(ctx, runtime.Command(entry.Probe.Command, entry.Probe.Args...).Hidden())
		dep.Installed = result.Success()
		if dep.Installed && entry.Probe.Version {
			version = firstLine(result.Output)
			if version == "" {
				version = firstLine(result.ErrOutput)
			}
		}
	case ProbePackage:
		query, ok := c.Queries[c.Family]
		if !ok {
			slog.Warn("no package query for family", "family", c.Family, "package", entry.Probe.Package)
			break
		}
		dep.Installed, version = query.Parse(c.Runner.Capture(ctx, query.Command(entry.Probe.Package)))
	case ProbeShell:
		dep.Installed = c.Shell.Run(ctx, entry.Probe.Script, runtime.ShellOptions{}).Success()
	}

	if version != "" {
		dep.Version = &version
	}
	slog.Debug("probed dependency", "name", entry.Name, "probe", entry.Probe.String(), "installed", dep.Installed)
	return dep
}
