// Package component reports which optional components are active.
package component

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the manifest every component directory carries.
const ManifestFile = "component.yaml"

// Registry lists the names of the active components.
type Registry interface {
	ActiveNames(ctx context.Context) ([]string, error)
}

// Static is a fixed list of active component names.
type Static []string

// ActiveNames returns the names, sorted.
func (s Static) ActiveNames(context.Context) ([]string, error) {
	names := append([]string(nil), s...)
	sort.Strings(names)
	return names, nil
}

// Manifest is the content of a component.yaml file.
type Manifest struct {
	Name    string `yaml:"name"`
	Enabled *bool  `yaml:"enabled"`
}

// IsEnabled reports whether the component is enabled. Components are
// enabled unless the manifest says otherwise.
func (m Manifest) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// Dir discovers components installed as subdirectories of Path. Each
// subdirectory with a component.yaml is a component; subdirectories without
// one are ignored.
type Dir struct {
	Path   string
	Logger *slog.Logger
}

// NewDir creates a directory registry. If logger is nil, a discard logger is used.
func NewDir(path string, logger *slog.Logger) *Dir {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dir{Path: path, Logger: logger}
}

// ActiveNames reads every manifest and returns the enabled component names,
// sorted. A manifest without a name uses its directory name.
func (d *Dir) ActiveNames(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read components directory %s: %w", d.Path, err)
	}

	var names []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}

		manifest, err := readManifest(filepath.Join(d.Path, entry.Name(), ManifestFile))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}

		name := manifest.Name
		if name == "" {
			name = entry.Name()
		}
		if !manifest.IsEnabled() {
			d.Logger.Debug("component disabled", slog.String("component", name))
			continue
		}
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &m, nil
}
