// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"
)

// RegisterProject records a project created at path. An existing entry only
// has its timestamp refreshed; a new one is added with project type "zephyr"
// and name defaulting to the directory base name.
func (c *Config) RegisterProject(path, name string, now time.Time) ProjectRecord {
	path = filepath.Clean(path)
	if i := c.indexOf(path); i >= 0 {
		c.ProjectHistory[i].LastOpened = now.Unix()
		return c.touch(i)
	}
	return c.insert(ProjectRecord{
		Path:        path,
		Name:        defaultName(path, name),
		LastOpened:  now.Unix(),
		ProjectType: ProjectTypeZephyr,
	})
}

// OpenProject records that the project at path was opened under name. Unlike
// RegisterProject it also replaces the name of an existing entry.
func (c *Config) OpenProject(path, name string, now time.Time) ProjectRecord {
	path = filepath.Clean(path)
	if i := c.indexOf(path); i >= 0 {
		c.ProjectHistory[i].LastOpened = now.Unix()
		if name != "" {
			c.ProjectHistory[i].Name = name
		}
		return c.touch(i)
	}
	return c.insert(ProjectRecord{
		Path:        path,
		Name:        defaultName(path, name),
		LastOpened:  now.Unix(),
		ProjectType: ProjectTypeZephyr,
	})
}

// RenameProject sets the display name of an existing entry without touching its timestamp.
func (c *Config) RenameProject(path, name string) error {
	i := c.indexOf(filepath.Clean(path))
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, path)
	}
	c.ProjectHistory[i].Name = name
	return nil
}

// RemoveProject drops path from both history lists.
func (c *Config) RemoveProject(path string) error {
	path = filepath.Clean(path)
	i := c.indexOf(path)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, path)
	}
	c.ProjectHistory = slices.Delete(c.ProjectHistory, i, i+1)
	c.RecentProjects = slices.DeleteFunc(c.RecentProjects, func(p string) bool { return p == path })
	return nil
}

// FindProject returns the history entry for path.
func (c *Config) FindProject(path string) (ProjectRecord, bool) {
	i := c.indexOf(filepath.Clean(path))
	if i < 0 {
		return ProjectRecord{}, false
	}
	return c.ProjectHistory[i], true
}

func (c *Config) indexOf(path string) int {
	return slices.IndexFunc(c.ProjectHistory, func(p ProjectRecord) bool { return p.Path == path })
}

// touch moves entry i to the front and re-establishes the ordering.
func (c *Config) touch(i int) ProjectRecord {
	rec := c.ProjectHistory[i]
	c.ProjectHistory = slices.Delete(c.ProjectHistory, i, i+1)
	return c.insert(rec)
}

// insert places rec at the front, keeps the list sorted by LastOpened
// descending (stable, so the newest write wins ties) and trims both lists.
func (c *Config) insert(rec ProjectRecord) ProjectRecord {
	c.ProjectHistory = slices.Insert(c.ProjectHistory, 0, rec)
	slices.SortStableFunc(c.ProjectHistory, func(a, b ProjectRecord) int {
		switch {
		case a.LastOpened > b.LastOpened:
			return -1
		case a.LastOpened < b.LastOpened:
			return 1
		default:
			return 0
		}
	})
	if len(c.ProjectHistory) > MaxHistory {
		c.ProjectHistory = c.ProjectHistory[:MaxHistory]
	}

	c.RecentProjects = slices.DeleteFunc(c.RecentProjects, func(p string) bool { return p == rec.Path })
	c.RecentProjects = slices.Insert(c.RecentProjects, 0, rec.Path)
	if len(c.RecentProjects) > MaxHistory {
		c.RecentProjects = c.RecentProjects[:MaxHistory]
	}
	return rec
}

func defaultName(path, name string) string {
	if name != "" {
		return name
	}
	return filepath.Base(path)
}
