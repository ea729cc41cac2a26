// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"

	"github.com/zephyrup/zephyrup/internal/runtime"
	"github.com/zephyrup/zephyrup/internal/venv"
)

const (
	// ZephyrDir is the Zephyr repository inside a workspace.
	ZephyrDir = "zephyr"

	// Shallow clone options passed to west init and west update.
	cloneFilterOpt = "--clone-opt=--filter=blob:none"
	fetchFilterOpt = "--fetch-opt=--filter=blob:none"
)

type (
	// InstallOptions controls InstallPlan.
	InstallOptions struct {
		// SDKDestination is passed to "west sdk install -d" when set.
		SDKDestination string
		// ShallowClone adds blob filters to west init and west update.
		ShallowClone bool
		// Mirror is the package index URL. Empty skips both mirror steps.
		Mirror string
		// Python is the bootstrap interpreter that creates the venv.
		Python string
		// GOOS selects the venv layout.
		GOOS string
	}

	// Option is a functional option for configuring InstallOptions.
	Option func(*InstallOptions)

	// InstallResult describes a provisioned environment.
	InstallResult struct {
		Target      string
		VenvPath    string
		Interpreter string
		ZephyrBase  string
	}
)

// DefaultInstallOptions returns the options for the host: python3 (python on
// Windows), no mirror, full clones.
func DefaultInstallOptions() InstallOptions {
	return InstallOptions{
		Python: bootstrapPython(goruntime.GOOS),
		GOOS:   goruntime.GOOS,
	}
}

// WithSDKDestination returns an Option that sets SDKDestination.
func WithSDKDestination(dir string) Option {
	return func(o *InstallOptions) {
		o.SDKDestination = dir
	}
}

// WithShallowClone returns an Option that sets ShallowClone.
func WithShallowClone(shallow bool) Option {
	return func(o *InstallOptions) {
		o.ShallowClone = shallow
	}
}

// WithMirror returns an Option that sets the package index mirror.
func WithMirror(url string) Option {
	return func(o *InstallOptions) {
		o.Mirror = url
	}
}

// WithPython returns an Option that sets the bootstrap interpreter. Empty keeps the default.
func WithPython(python string) Option {
	return func(o *InstallOptions) {
		if python != "" {
			o.Python = python
		}
	}
}

// WithGOOS returns an Option that builds the plan for another operating system.
func WithGOOS(goos string) Option {
	return func(o *InstallOptions) {
		o.GOOS = goos
		if o.Python == "" || o.Python == bootstrapPython(goruntime.GOOS) {
			o.Python = bootstrapPython(goos)
		}
	}
}

// Apply applies the given options.
func (o *InstallOptions) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

func bootstrapPython(goos string) string {
	if goos == "windows" {
		return "python"
	}
	return "python3"
}

// InstallPlan returns the provisioning steps for a workspace at State.Target:
//
//  1. create-venv          <python> -m venv .venv
//  2. resolve-interpreter  locate .venv's interpreter and build the overlay
//  3. upgrade-pip          pip install -i <mirror> pip -U        (mirror only)
//  4. configure-index      pip config --site set global.index-url (mirror only)
//  5. install-west         pip install west
//  6. west-init            west init . [--clone-opt=--filter=blob:none]
//  7. west-update          west update [--fetch-opt=--filter=blob:none]
//  8. zephyr-export        west zephyr-export
//  9. python-deps          west packages pip --install
//  10. sdk-install         west sdk install [-d <dest>], in <target>/zephyr
//
// Steps after resolve-interpreter run the venv interpreter directly with the overlay.
func InstallPlan(opts InstallOptions) Plan {
	hasMirror := func(*State) bool { return opts.Mirror != "" }

	return Plan{
		{
			Name:      "create-venv",
			Milestone: "Creating virtual environment...",
			Command: func(s *State) (runtime.ProcessSpec, error) {
				return runtime.Command(opts.Python, "-m", "venv", venv.DirName).WithDir(s.Target).Hidden(), nil
			},
		},
		{
			Name:      "resolve-interpreter",
			Milestone: "Resolving virtual environment interpreter...",
			Local: func(_ context.Context, s *State) error {
				return s.Activate(filepath.Join(s.Target, venv.DirName), opts.GOOS)
			},
		},
		{
			Name:      "upgrade-pip",
			Milestone: fmt.Sprintf("Upgrading pip from %s...", opts.Mirror),
			When:      hasMirror,
			Command:   venvModule("pip", "install", "-i", opts.Mirror, "pip", "-U"),
		},
		{
			Name:      "configure-index",
			Milestone: fmt.Sprintf("Setting pip index to %s...", opts.Mirror),
			When:      hasMirror,
			Command:   venvModule("pip", "config", "--site", "set", "global.index-url", opts.Mirror),
		},
		{
			Name:      "install-west",
			Milestone: "Installing west...",
			Command:   venvModule("pip", "install", "west"),
		},
		{
			Name:      "west-init",
			Milestone: "Initializing west workspace...",
			Command:   venvModule("west", appendIf([]string{"init", "."}, opts.ShallowClone, cloneFilterOpt)...),
		},
		{
			Name:      "west-update",
			Milestone: "Updating west modules (this may take a while)...",
			Command:   venvModule("west", appendIf([]string{"update"}, opts.ShallowClone, fetchFilterOpt)...),
		},
		{
			Name:      "zephyr-export",
			Milestone: "Exporting Zephyr CMake package...",
			Command:   venvModule("west", "zephyr-export"),
		},
		{
			Name:      "python-deps",
			Milestone: "Installing Python dependencies...",
			Command:   venvModule("west", "packages", "pip", "--install"),
		},
		{
			Name:      "sdk-install",
			Milestone: "Installing Zephyr SDK...",
			Command: func(s *State) (runtime.ProcessSpec, error) {
				args := []string{"sdk", "install"}
				if opts.SDKDestination != "" {
					args = append(args, "-d", opts.SDKDestination)
				}
				spec, err := venvModule("west", args...)(s)
				return spec.WithDir(filepath.Join(s.Target, ZephyrDir)), err
			},
		},
	}
}

// venvModule runs "<venv python> -m module args..." in the target with the overlay.
func venvModule(module string, args ...string) func(*State) (runtime.ProcessSpec, error) {
	return func(s *State) (runtime.ProcessSpec, error) {
		if s.Interpreter == "" {
			return runtime.ProcessSpec{}, ErrInterpreterMissing
		}
		return runtime.Command(s.Interpreter, append([]string{"-m", module}, args...)...).
			WithDir(s.Target).
			WithEnv(s.Overlay).
			Hidden(), nil
	}
}

func appendIf(args []string, cond bool, extra ...string) []string {
	if cond {
		return append(args, extra...)
	}
	return args
}

// Provision creates target if needed and runs InstallPlan in it, emitting a
// completion milestone on success.
func Provision(ctx context.Context, p *Pipeline, target string, sink runtime.LogSink, opts ...Option) (*InstallResult, error) {
	o := DefaultInstallOptions()
	o.Apply(opts...)

	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("resolve target %s: %w", target, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create target %s: %w", abs, err)
	}

	state := &State{Target: abs}
	if err := p.Run(ctx, InstallPlan(o), state, sink); err != nil {
		return nil, err
	}

	if sink != nil {
		sink.Emit(runtime.LogEvent{Stream: runtime.StreamInfo, Text: "Zephyr installation complete!\n"})
	}
	return &InstallResult{
		Target:      abs,
		VenvPath:    state.Venv.Root,
		Interpreter: state.Interpreter,
		ZephyrBase:  filepath.Join(abs, ZephyrDir),
	}, nil
}
