package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/wallthemes/internal/catalog"
	"github.com/jmylchreest/wallthemes/internal/report"
)

func TestDiscover(t *testing.T) {
	groups := []Group{
		{
			Name: "photos",
			Entries: []Entry{
				{ID: "lake", URLs: []string{"https://example.com/lake.ddw"}},
				{ID: "desert", URLs: []string{"https://example.com/desert-v2.ddw", "https://example.com/desert.ddw"}},
				{ID: "forest", URLs: []string{"https://example.com/forest.ddw"}},
			},
		},
		{
			Name: "art",
			Entries: []Entry{
				{ID: "my theme!", URLs: []string{"https://example.com/mine.ddw"}},
				{ID: "empty"},
			},
		},
	}

	cat := catalog.New()
	cat.Upsert("lake", catalog.Record{ThemeURL: "https://example.com/lake.ddw"})
	cat.Upsert("desert", catalog.Record{ThemeURL: "https://example.com/desert.ddw"})

	collector := report.NewCollector()
	candidates := Discover(groups, cat, collector)

	assert.Equal(t, []Candidate{
		{ID: "desert", URL: "https://example.com/desert-v2.ddw", Group: "photos"},
		{ID: "forest", URL: "https://example.com/forest.ddw", Group: "photos"},
		{ID: "my theme!", URL: "https://example.com/mine.ddw", Group: "art"},
	}, candidates)
	assert.Equal(t, []string{"desert", "forest", "my theme!"}, IDs(candidates))

	assert.Equal(t, []string{
		"Theme ID 'my theme!' contains invalid characters (only alphanumeric, hyphen, and underscore allowed)",
		"[empty] Theme has no download URL in art.yaml",
	}, collector.Messages())
	for _, e := range collector.Entries() {
		assert.False(t, e.Fatal)
	}
}

func TestDiscover_NothingNew(t *testing.T) {
	groups := []Group{{Name: "photos", Entries: []Entry{{ID: "lake", URLs: []string{"u"}}}}}
	cat := catalog.New()
	cat.Upsert("lake", catalog.Record{ThemeURL: "u"})

	collector := report.NewCollector()
	assert.Empty(t, Discover(groups, cat, collector))
	assert.Zero(t, collector.Len())
}

func TestDiscover_CataloguedInvalidIDNotReported(t *testing.T) {
	groups := []Group{{Name: "photos", Entries: []Entry{{ID: "old one", URLs: []string{"u"}}}}}
	cat := catalog.New()
	cat.Upsert("old one", catalog.Record{ThemeURL: "u"})

	collector := report.NewCollector()
	assert.Empty(t, Discover(groups, cat, collector))
	assert.Zero(t, collector.Len())
}

func TestDiscover_UnicodeIDs(t *testing.T) {
	groups := []Group{{Name: "photos", Entries: []Entry{
		{ID: "café", URLs: []string{"https://example.com/cafe.ddw"}},
		{ID: "東京", URLs: []string{"https://example.com/tokyo.ddw"}},
	}}}

	collector := report.NewCollector()
	assert.Equal(t, []string{"café", "東京"}, IDs(Discover(groups, catalog.New(), collector)))
	assert.Zero(t, collector.Len())
}

func TestDiscover_ReportsDuplicateIDs(t *testing.T) {
	g, err := Parse("photos", []byte("lake: [https://example.com/old.ddw]\nlake: [https://example.com/new.ddw]\n"))
	require.NoError(t, err)

	collector := report.NewCollector()
	candidates := Discover([]Group{g}, catalog.New(), collector)

	assert.Equal(t, []Candidate{{ID: "lake", URL: "https://example.com/new.ddw", Group: "photos"}}, candidates)
	assert.Equal(t, []string{"[lake] Theme is declared more than once in photos.yaml, using the last entry"}, collector.Messages())
	assert.Equal(t, 1, collector.ExitCode())
	assert.False(t, collector.Entries()[0].Fatal)
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("Mountain_Lake-2"))
	assert.True(t, ValidID("café"))
	assert.True(t, ValidID("東京"))
	assert.True(t, ValidID("São_Paulo-2"))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("my theme!"))
	assert.False(t, ValidID("a/b"))
}
