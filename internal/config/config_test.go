// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"testing"
	"time"

	"github.com/zephyrup/zephyrup/internal/issue"
	"github.com/zephyrup/zephyrup/internal/testutil"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadMissingDirReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := DefaultConfig()
	if cfg.PipIndexURL != want.PipIndexURL || cfg.CloneDepth != want.CloneDepth || cfg.Activation != ActivationOverlay {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("Load() error = %v, want *issue.ActionableError", err)
	}
	if !ae.HasSuggestions() {
		t.Error("expected suggestions on missing config file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist in chain", err)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
venv_path: "/opt/zephyr/.venv"
clone_depth: 3
manifest: revision: "v2"
project_history: [
	{path: "/work/robot", name: "robot", last_opened: 42, project_type: "zephyr"},
]
`)
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.VenvPath != "/opt/zephyr/.venv" {
		t.Errorf("VenvPath = %q", cfg.VenvPath)
	}
	if cfg.CloneDepth != 3 {
		t.Errorf("CloneDepth = %d", cfg.CloneDepth)
	}
	if cfg.Manifest.Revision != "v2" || cfg.Manifest.URL != DefaultManifestURL {
		t.Errorf("Manifest = %+v", cfg.Manifest)
	}
	if cfg.PipIndexURL != DefaultPipIndexURL {
		t.Errorf("PipIndexURL = %q, want default", cfg.PipIndexURL)
	}
	if len(cfg.ProjectHistory) != 1 || cfg.ProjectHistory[0].LastOpened != 42 {
		t.Errorf("ProjectHistory = %+v", cfg.ProjectHistory)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "bad activation", content: `activation: "magic"`, want: "activation"},
		{name: "unknown field", content: `container_engine: "docker"`, want: "container_engine"},
		{name: "zero clone depth", content: `clone_depth: 0`, want: "clone_depth"},
		{name: "syntax error", content: `pip_index_url: `, want: "config.cue"},
		{
			name:    "empty history path",
			content: `project_history: [{path: "", name: "x", last_opened: 1}]`,
			want:    "project_history",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, tt.content)
			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.cue")
	store := NewStore(path).WithClock(func() time.Time { return time.Unix(1000, 0) })
	ctx := context.Background()

	if _, err := store.Update(ctx, func(c *Config) error {
		c.ZephyrBase = `C:\zephyr "ws"\zephyr`
		c.PipIndexURL = ""
		c.Activation = ActivationScript
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, err := store.RegisterProject(ctx, "/work/robot", ""); err != nil {
		t.Fatalf("RegisterProject() error = %v", err)
	}

	got, err := NewStore(path).Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.ZephyrBase != `C:\zephyr "ws"\zephyr` {
		t.Errorf("ZephyrBase = %q", got.ZephyrBase)
	}
	if got.PipIndexURL != "" {
		t.Errorf("PipIndexURL = %q, want empty (mirror disabled)", got.PipIndexURL)
	}
	if got.Activation != ActivationScript {
		t.Errorf("Activation = %q", got.Activation)
	}
	if len(got.ProjectHistory) != 1 || got.ProjectHistory[0].Name != "robot" || got.ProjectHistory[0].LastOpened != 1000 {
		t.Errorf("ProjectHistory = %+v", got.ProjectHistory)
	}
	if len(got.RecentProjects) != 1 {
		t.Errorf("RecentProjects = %v", got.RecentProjects)
	}
}

func TestStoreSavesInvalidUTF8Paths(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.cue")
	store := NewStore(path)
	ctx := context.Background()

	if _, err := store.RegisterProject(ctx, "/work/caf\xe9", "Caf\xe9"); err != nil {
		t.Fatalf("RegisterProject() error = %v", err)
	}
	if _, err := store.RegisterProject(ctx, "/work/tab\there", ""); err != nil {
		t.Fatalf("RegisterProject() error = %v", err)
	}

	got, err := NewStore(path).Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v\n%s", err, mustReadFile(t, path))
	}
	if _, ok := got.FindProject("/work/caf\uFFFD"); !ok {
		t.Errorf("ProjectHistory = %+v, want the invalid byte replaced", got.ProjectHistory)
	}
	if _, ok := got.FindProject("/work/tab\there"); !ok {
		t.Errorf("ProjectHistory = %+v, want the tab preserved", got.ProjectHistory)
	}
}

func TestStoreUpdateErrorDoesNotWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.cue")
	store := NewStore(path)
	boom := errors.New("boom")

	if _, err := store.Update(context.Background(), func(*Config) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want boom", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("config file should not exist, stat error = %v", err)
	}
}

func TestStoreInit(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "config.cue"))
	created, err := store.Init()
	if err != nil || !created {
		t.Fatalf("Init() = %v, %v; want true, nil", created, err)
	}
	created, err = store.Init()
	if err != nil || created {
		t.Errorf("second Init() = %v, %v; want false, nil", created, err)
	}
}

func TestSetValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key, value string
		wantErr    error
	}{
		{key: "clone_depth", value: "5"},
		{key: "activation", value: "script"},
		{key: "manifest.url", value: "https://example.com/manifest"},
		{key: "ui.verbose", value: "true"},
		{key: "activation", value: "magic", wantErr: ErrInvalidConfig},
		{key: "clone_depth", value: "0", wantErr: ErrInvalidConfig},
		{key: "project_history", value: "x", wantErr: ErrUnknownKey},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			err := SetValue(cfg, tt.key, tt.value)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("SetValue() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetValue() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	got, err := ConfigDir()
	if err != nil || got != dir {
		t.Fatalf("ConfigDir() = %q, %v; want %q", got, err, dir)
	}
	path, err := DefaultConfigPath()
	if err != nil || path != filepath.Join(dir, "config.cue") {
		t.Errorf("DefaultConfigPath() = %q, %v", path, err)
	}
}

func TestProviderConfigEnvVar(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "clone_depth: 7\n")
	p := &fileProvider{getenv: func(key string) string {
		if key == ConfigEnvVar {
			return path
		}
		return ""
	}}
	ctx := context.Background()

	cfg, err := p.Load(ctx, LoadOptions{})
	if err != nil || cfg.CloneDepth != 7 {
		t.Fatalf("Load() = %+v, %v; want clone_depth from %s", cfg, err, ConfigEnvVar)
	}

	cfg, err = p.Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil || cfg.CloneDepth != DefaultCloneDepth {
		t.Errorf("ConfigDirPath should win over %s: %+v, %v", ConfigEnvVar, cfg, err)
	}
}

func TestConfigDirFromEnvironment(t *testing.T) {
	// Not parallel: points the per-user config root at a temp dir.
	home := t.TempDir()
	t.Cleanup(testutil.SetConfigHome(t, home))

	want := filepath.Join(home, AppName)
	if goruntime.GOOS == "darwin" {
		want = filepath.Join(home, "Library", "Application Support", AppName)
	}
	got, err := ConfigDir()
	if err != nil || got != want {
		t.Errorf("ConfigDir() = %q, %v; want %q", got, err, want)
	}
}

func TestOpenStoreFromEnvironment(t *testing.T) {
	// Not parallel: mutates the process environment.
	home := t.TempDir()
	t.Cleanup(testutil.SetConfigHome(t, home))
	t.Cleanup(testutil.MustUnsetenv(t, ConfigEnvVar))

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	store, err := OpenStore(LoadOptions{})
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	if want := filepath.Join(dir, "config.cue"); store.Path() != want {
		t.Errorf("Path() = %q, want %q", store.Path(), want)
	}

	custom := filepath.Join(t.TempDir(), "custom.cue")
	t.Cleanup(testutil.MustSetenv(t, ConfigEnvVar, custom))
	if store, err = OpenStore(LoadOptions{}); err != nil || store.Path() != custom {
		t.Errorf("OpenStore() with %s = %v, %v; want %q", ConfigEnvVar, store, err, custom)
	}

	explicit := filepath.Join(t.TempDir(), "explicit.cue")
	if store, err = OpenStore(LoadOptions{ConfigFilePath: explicit}); err != nil || store.Path() != explicit {
		t.Errorf("OpenStore() with explicit path = %v, %v; want %q", store, err, explicit)
	}
}

func TestStoreHistoryUsesClock(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(time.Time{})
	store := NewStore(filepath.Join(t.TempDir(), "config.cue")).WithClock(clock.Now)
	ctx := context.Background()

	if _, err := store.RegisterProject(ctx, "/work/alpha", ""); err != nil {
		t.Fatalf("RegisterProject() error = %v", err)
	}
	clock.Advance(time.Minute)
	if _, err := store.OpenProject(ctx, "/work/bravo", "Bravo"); err != nil {
		t.Fatalf("OpenProject() error = %v", err)
	}
	reopened := clock.Tick(time.Minute)
	rec, err := store.OpenProject(ctx, "/work/alpha", "")
	if err != nil {
		t.Fatalf("OpenProject() error = %v", err)
	}
	if rec.LastOpened != reopened.Unix() || rec.Name != "alpha" {
		t.Errorf("reopened record = %+v", rec)
	}

	cfg, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	var names []string
	for _, r := range cfg.ProjectHistory {
		names = append(names, r.Name)
	}
	if strings.Join(names, ",") != "alpha,Bravo" {
		t.Errorf("history order = %v, want alpha then Bravo", names)
	}
}

func TestFieldPath(t *testing.T) {
	t.Parallel()

	got := fieldPath([]string{"#Config", "project_history", "3", "path"})
	if got != "project_history[3].path" {
		t.Errorf("fieldPath() = %q", got)
	}
}

func mustReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	return string(data)
}
