// Package plugins enumerates installed provider plug-ins from a manifest
// file and resolves them to descriptors in deterministic order. Provider
// packages expose a Descriptor() constructor; nothing registers itself as
// an import side effect.
package plugins

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/openbb/platform-core/internal/provider"
)

// Builder constructs a provider descriptor. One per installed plug-in.
type Builder func() provider.Descriptor

// Manifest lists the plug-ins to enable, in registration order.
type Manifest struct {
	Plugins []string `yaml:"plugins"`
}

// LoadManifest reads a plug-in manifest from a YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "plugins: read manifest %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "plugins: parse manifest %s", path)
	}
	return &m, nil
}

// Resolve maps manifest entries to descriptors. A manifest naming an
// uninstalled plug-in is a startup error. A nil manifest enables every
// installed plug-in in sorted name order, so registration order stays
// deterministic either way.
func Resolve(m *Manifest, installed map[string]Builder) ([]provider.Descriptor, error) {
	var names []string
	if m != nil {
		names = m.Plugins
	} else {
		for name := range installed {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	out := make([]provider.Descriptor, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			return nil, eris.Errorf("plugins: %q listed twice in manifest", name)
		}
		seen[name] = struct{}{}
		build, ok := installed[name]
		if !ok {
			return nil, eris.Errorf("plugins: %q is not installed", name)
		}
		out = append(out, build())
	}
	return out, nil
}
