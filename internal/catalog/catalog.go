// Package catalog reads and writes the theme database, the JSON file that maps
// every accepted theme id to its record.
//
// The file is a versioned artifact, so Encode is byte-reproducible: entries are
// sorted by display name, indentation is fixed and line endings are "\n".
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmylchreest/wallthemes/internal/storage"
)

// Sun phases, in the order previews are generated.
const (
	PhaseSunrise = "sunrise"
	PhaseDay     = "day"
	PhaseSunset  = "sunset"
	PhaseNight   = "night"
)

// DateLayout is the format of Record.DateAdded.
const DateLayout = "2006-01-02"

const indent = "    "

// Record is the catalog entry for one theme.
type Record struct {
	ThemeURL     string `json:"themeUrl"`
	ThemeType    string `json:"themeType"`
	DisplayName  string `json:"displayName"`
	ImageCredits string `json:"imageCredits"`
	// FileHash is the sha256 hex digest of the source archive. Entries
	// recorded before hashing was introduced leave it empty.
	FileHash  string `json:"fileHash,omitempty"`
	FileSize  int64  `json:"fileSize"`
	DateAdded string `json:"dateAdded"`
	ImageSize [2]int `json:"imageSize"`
	// SunPhases lists the generated previews. Nil means no previews exist and
	// is encoded as null.
	SunPhases []string `json:"sunPhases"`
}

// FormatDate renders t as a DateAdded value.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Catalog maps theme ids to records.
type Catalog map[string]Record

// New returns an empty catalog.
func New() Catalog {
	return make(Catalog)
}

// Load reads the catalog at path. A missing file yields an empty catalog.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Decode(data)
}

// Decode parses catalog JSON.
func Decode(data []byte) (Catalog, error) {
	cat := New()
	if len(bytes.TrimSpace(data)) == 0 {
		return cat, nil
	}
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return cat, nil
}

// Upsert inserts or replaces the record for id.
func (c Catalog) Upsert(id string, rec Record) {
	c[id] = rec
}

// Lookup returns the record for id.
func (c Catalog) Lookup(id string) (Record, bool) {
	rec, ok := c[id]
	return rec, ok
}

// SortKey is the key entries are ordered by: the display name, or the id with
// spaces replaced by underscores, lower-cased.
func SortKey(id string, rec Record) string {
	key := rec.DisplayName
	if key == "" {
		key = strings.ReplaceAll(id, " ", "_")
	}
	return strings.ToLower(key)
}

// IDs returns the theme ids in persisted order. Ids with equal sort keys are
// ordered by id.
func (c Catalog) IDs() []string {
	ids := make([]string, 0, len(c))
	keys := make(map[string]string, len(c))
	for id, rec := range c {
		ids = append(ids, id)
		keys[id] = SortKey(id, rec)
	}
	sort.Slice(ids, func(i, j int) bool {
		if keys[ids[i]] != keys[ids[j]] {
			return keys[ids[i]] < keys[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Encode renders the catalog in its canonical form.
func Encode(c Catalog) ([]byte, error) {
	if len(c) == 0 {
		return []byte("{}\n"), nil
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, id := range c.IDs() {
		key, err := marshal(id, "")
		if err != nil {
			return nil, fmt.Errorf("encoding id %q: %w", id, err)
		}
		value, err := marshal(c[id], indent)
		if err != nil {
			return nil, fmt.Errorf("encoding record %q: %w", id, err)
		}

		buf.WriteString(indent)
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value)
		if i < len(c)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// marshal encodes v without HTML escaping, indented one level below prefix.
func marshal(v any, prefix string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Save writes the catalog to path atomically.
func Save(path string, c Catalog) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}

	sb, err := storage.NewSandbox(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("opening catalog directory: %w", err)
	}
	if err := sb.AtomicWrite(filepath.Base(path), data); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}
