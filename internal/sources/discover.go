package sources

import (
	"regexp"

	"github.com/jmylchreest/wallthemes/internal/catalog"
	"github.com/jmylchreest/wallthemes/internal/report"
)

// Letters and digits from any script, combining marks, connector
// punctuation and hyphens.
var validID = regexp.MustCompile(`^[\p{L}\p{N}\p{Mn}\p{Pc}-]+$`)

// ValidID reports whether id may be used as a catalog key.
func ValidID(id string) bool {
	return validID.MatchString(id)
}

// Candidate is a declared theme that is new or whose primary URL changed.
type Candidate struct {
	ID    string
	URL   string
	Group string
}

// Discover returns the entries of groups that are absent from cat or whose
// primary URL differs from the catalogued one, in declaration order.
//
// An id with invalid characters is reported but stays a candidate. An entry
// without any URL is reported and skipped. Ids declared more than once in a
// list are reported and their last declaration is used.
func Discover(groups []Group, cat catalog.Catalog, collector *report.Collector) []Candidate {
	var candidates []Candidate
	for _, g := range groups {
		for _, id := range g.Duplicates {
			collector.Scope(id).Errorf("Theme is declared more than once in %s%s, using the last entry", g.Name, Extension)
		}
		for _, e := range g.Entries {
			url := e.PrimaryURL()
			if url == "" {
				collector.Scope(e.ID).Errorf("Theme has no download URL in %s%s", g.Name, Extension)
				continue
			}

			if rec, ok := cat.Lookup(e.ID); ok && rec.ThemeURL == url {
				continue
			}

			if !ValidID(e.ID) {
				collector.Errorf("Theme ID '%s' contains invalid characters (only alphanumeric, hyphen, and underscore allowed)", e.ID)
			}
			candidates = append(candidates, Candidate{ID: e.ID, URL: url, Group: g.Name})
		}
	}
	return candidates
}

// IDs returns the ids of candidates in order.
func IDs(candidates []Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return ids
}
