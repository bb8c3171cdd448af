// Package sources reads the human-edited theme source lists and works out
// which declared themes still need processing.
//
// Each list is a YAML mapping from theme id to download URLs, most preferred
// first. The list's file name without extension is the group the themes are
// catalogued under.
package sources

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Extension is the file extension of a source list.
const Extension = ".yaml"

// Entry is one declared theme.
type Entry struct {
	ID   string
	URLs []string
	// Line is the position of the id in its list, for diagnostics.
	Line int
}

// PrimaryURL returns the preferred download URL, or "" when none is declared.
func (e Entry) PrimaryURL() string {
	if len(e.URLs) == 0 {
		return ""
	}
	return e.URLs[0]
}

// Group is the parsed content of one source list.
type Group struct {
	Name    string
	Entries []Entry
	// Duplicates lists ids declared more than once. The last declaration
	// wins and keeps the position of the first.
	Duplicates []string
}

// Lookup returns the entry declared for id.
func (g Group) Lookup(id string) (Entry, bool) {
	for _, e := range g.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Load reads every source list in dir, ordered by file name.
func Load(dir string) ([]Group, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+Extension))
	if err != nil {
		return nil, fmt.Errorf("listing source lists: %w", err)
	}
	sort.Strings(paths)

	groups := make([]Group, 0, len(paths))
	for _, path := range paths {
		g, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// LoadFile reads a single source list.
func LoadFile(path string) (Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Group{}, fmt.Errorf("reading source list: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	g, err := Parse(name, data)
	if err != nil {
		return Group{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return g, nil
}

// Parse decodes a source list, keeping the declaration order of its ids. An
// empty document yields an empty group.
func Parse(name string, data []byte) (Group, error) {
	g := Group{Name: name}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return g, err
	}
	if len(doc.Content) == 0 {
		return g, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return g, nil
	}
	if root.Kind != yaml.MappingNode {
		return g, fmt.Errorf("line %d: expected a mapping of theme ids to URL lists", root.Line)
	}

	seen := make(map[string]int, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return g, fmt.Errorf("line %d: theme id must be a scalar", key.Line)
		}

		urls, err := decodeURLs(value)
		if err != nil {
			return g, fmt.Errorf("line %d: theme %q: %w", value.Line, key.Value, err)
		}
		entry := Entry{ID: key.Value, URLs: urls, Line: key.Line}

		if idx, ok := seen[key.Value]; ok {
			g.Entries[idx] = entry
			g.Duplicates = append(g.Duplicates, key.Value)
			continue
		}
		seen[key.Value] = len(g.Entries)
		g.Entries = append(g.Entries, entry)
	}
	return g, nil
}

// decodeURLs accepts a sequence of URLs, a single URL or null.
func decodeURLs(n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" || n.Value == "" {
			return nil, nil
		}
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		var urls []string
		if err := n.Decode(&urls); err != nil {
			return nil, err
		}
		return urls, nil
	default:
		return nil, errors.New("expected a list of URLs")
	}
}
