// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"slices"
	"testing"
)

func TestMergeEnv(t *testing.T) {
	t.Parallel()

	base := []string{"PATH=/usr/bin", "HOME=/home/dev", "=C:=C:\\work"}

	tests := []struct {
		name     string
		env      map[string]string
		foldCase bool
		want     []string
	}{
		{
			name: "no overlay",
			want: base,
		},
		{
			name: "override and add",
			env:  map[string]string{"PATH": "/venv/bin:/usr/bin", "VIRTUAL_ENV": "/venv"},
			want: []string{"HOME=/home/dev", "=C:=C:\\work", "PATH=/venv/bin:/usr/bin", "VIRTUAL_ENV=/venv"},
		},
		{
			name:     "case folded",
			env:      map[string]string{"Path": "C:\\venv\\Scripts"},
			foldCase: true,
			want:     []string{"HOME=/home/dev", "=C:=C:\\work", "Path=C:\\venv\\Scripts"},
		},
		{
			name: "case sensitive keeps both",
			env:  map[string]string{"Path": "x"},
			want: []string{"PATH=/usr/bin", "HOME=/home/dev", "=C:=C:\\work", "Path=x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := mergeEnv(base, tt.env, tt.foldCase)
			if !slices.Equal(got, tt.want) {
				t.Errorf("mergeEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLookupEnv(t *testing.T) {
	t.Parallel()

	environ := []string{"A=1", "Path=first", "A=2", "=C:=C:\\"}

	if v, ok := LookupEnv(environ, "A", false); !ok || v != "2" {
		t.Errorf("LookupEnv(A) = %q, %v; want last value", v, ok)
	}
	if _, ok := LookupEnv(environ, "PATH", false); ok {
		t.Error("LookupEnv(PATH) matched Path without folding")
	}
	if v, ok := LookupEnv(environ, "PATH", true); !ok || v != "first" {
		t.Errorf("LookupEnv(PATH, fold) = %q, %v", v, ok)
	}
	if v, ok := LookupEnv(environ, "=C:", false); !ok || v != "C:\\" {
		t.Errorf("LookupEnv(=C:) = %q, %v", v, ok)
	}
}

func TestProcessSpec_CopiesOnWrite(t *testing.T) {
	t.Parallel()

	base := Command("west", "update").WithEnv(map[string]string{"TERM": "xterm"})
	derived := base.WithArgs("--fetch-opt=--depth=15").WithEnv(map[string]string{"VIRTUAL_ENV": "/v"}).WithDir("/w").Hidden()

	if len(base.Args) != 1 || len(base.Env) != 1 || base.Dir != "" || base.HideWindow {
		t.Errorf("base spec was mutated: %+v", base)
	}
	if !slices.Equal(derived.Args, []string{"update", "--fetch-opt=--depth=15"}) {
		t.Errorf("derived args = %q", derived.Args)
	}
	if derived.Env["TERM"] != "xterm" || derived.Env["VIRTUAL_ENV"] != "/v" {
		t.Errorf("derived env = %v", derived.Env)
	}
}

func TestProcessSpec_String(t *testing.T) {
	t.Parallel()

	spec := Command("/opt/zephyr ws/.venv/bin/python", "-m", "west", "init", ".")
	want := "'/opt/zephyr ws/.venv/bin/python' -m west init ."
	if got := spec.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
