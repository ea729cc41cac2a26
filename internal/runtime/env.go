// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
)

// mergeEnv overlays env on base. Keys from env replace matching entries in base;
// foldCase makes the match case-insensitive, as Windows treats Path and PATH alike.
// The result lists surviving base entries first, then overlay entries sorted by key.
func mergeEnv(base []string, env map[string]string, foldCase bool) []string {
	if len(env) == 0 {
		return slices.Clone(base)
	}

	norm := func(k string) string {
		if foldCase {
			return strings.ToUpper(k)
		}
		return k
	}

	overridden := make(map[string]struct{}, len(env))
	for k := range env {
		overridden[norm(k)] = struct{}{}
	}

	out := make([]string, 0, len(base)+len(env))
	for _, kv := range base {
		if _, ok := overridden[norm(envKey(kv))]; ok {
			continue
		}
		out = append(out, kv)
	}

	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}

// envKey returns the variable name of a KEY=VALUE entry.
func envKey(kv string) string {
	// Windows keeps per-drive cwd entries such as "=C:=C:\".
	start := 0
	if strings.HasPrefix(kv, "=") {
		start = 1
	}
	if i := strings.IndexByte(kv[start:], '='); i >= 0 {
		return kv[:start+i]
	}
	return kv
}

// LookupEnv returns the value of key in a KEY=VALUE slice, using the last match.
func LookupEnv(environ []string, key string, foldCase bool) (string, bool) {
	for _, kv := range slices.Backward(environ) {
		k := envKey(kv)
		if len(k) == len(kv) {
			continue
		}
		v := kv[len(k)+1:]
		if k == key || (foldCase && strings.EqualFold(k, key)) {
			return v, true
		}
	}
	return "", false
}

// validateWorkDir checks that dir exists and is a directory.
func validateWorkDir(dir string) error {
	if dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s: %w", dir, err)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("permission denied: %s: %w", dir, err)
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	return nil
}
