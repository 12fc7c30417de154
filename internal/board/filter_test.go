package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/leadboard/internal/models"
)

func strp(s string) *string { return &s }

func intp(n int) *int { return &n }

func testLeads() []models.Lead {
	return []models.Lead{
		{
			ID:         "l1",
			PipelineID: strp("p1"),
			StageID:    strp("s1"),
			Name:       "Maria",
			LastName:   "Silva",
			Phone:      "+5511988887777",
			Email:      "maria@example.com",
			Company:    "Acme",
			DeviceID:   strp("d1"),
			StructuredTags: []models.StructuredTag{
				{ID: "t1", Name: "vip"},
			},
		},
		{
			ID:         "l2",
			PipelineID: strp("p1"),
			StageID:    strp("s2"),
			Name:       "Jorge",
			Email:      "jorge@other.com",
			DeviceID:   strp("d2"),
			StructuredTags: []models.StructuredTag{
				{ID: "t2", Name: "vitrina"},
			},
		},
		{
			ID:         "l3",
			PipelineID: strp("p2"),
			StageID:    strp("s9"),
			Name:       "Ana",
		},
		{
			ID:   "l4",
			Name: "Floater",
			StructuredTags: []models.StructuredTag{
				{ID: "t3", Name: "activo"},
			},
		},
	}
}

func TestVisibleLeadsEmptyFilterScopesToPipeline(t *testing.T) {
	got := VisibleLeads(testLeads(), NewFilterState(), "p1")

	require.Len(t, got, 3)
	assert.Equal(t, "l1", got[0].ID)
	assert.Equal(t, "l2", got[1].ID)
	// Unassigned leads float into every pipeline's view.
	assert.Equal(t, "l4", got[2].ID)
}

func TestVisibleLeadsSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	tests := []struct {
		name   string
		term   string
		expect []string
	}{
		{"by name", "MARIA", []string{"l1"}},
		{"by last name", "silva", []string{"l1"}},
		{"by phone fragment", "98888", []string{"l1"}},
		{"by email domain", "other.com", []string{"l2"}},
		{"by company", "acme", []string{"l1"}},
		{"no match", "zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := NewFilterState()
			filter.Search = tt.term

			got := VisibleLeads(testLeads(), filter, "p1")

			var ids []string
			for _, l := range got {
				ids = append(ids, l.ID)
			}
			assert.Equal(t, tt.expect, ids)
		})
	}
}

func TestVisibleLeadsDimensionsANDTogether(t *testing.T) {
	filter := NewFilterState()
	filter.ToggleStage("s1")
	filter.ToggleTag("vip")

	got := VisibleLeads(testLeads(), filter, "p1")
	require.Len(t, got, 1)
	assert.Equal(t, "l1", got[0].ID)

	// Adding a non-matching device dimension empties the result.
	filter.ToggleDevice("d2")
	got = VisibleLeads(testLeads(), filter, "p1")
	assert.Empty(t, got)
}

func TestVisibleLeadsNarrowingIsMonotonic(t *testing.T) {
	leads := testLeads()

	filter := NewFilterState()
	base := len(VisibleLeads(leads, filter, "p1"))

	filter.ToggleStage("s1")
	withStage := len(VisibleLeads(leads, filter, "p1"))
	assert.LessOrEqual(t, withStage, base)

	filter.ToggleTag("vip")
	withTag := len(VisibleLeads(leads, filter, "p1"))
	assert.LessOrEqual(t, withTag, withStage)

	filter.Search = "ma"
	withSearch := len(VisibleLeads(leads, filter, "p1"))
	assert.LessOrEqual(t, withSearch, withTag)
}

func TestVisibleLeadsDoesNotMutateInput(t *testing.T) {
	leads := testLeads()

	got := VisibleLeads(leads, NewFilterState(), "p1")
	require.NotEmpty(t, got)

	got[0].Name = "changed"
	got[0].StructuredTags[0].Name = "changed"

	assert.Equal(t, "Maria", leads[0].Name)
	assert.Equal(t, "vip", leads[0].StructuredTags[0].Name)
}

func TestFilterStateToggleAndIsEmpty(t *testing.T) {
	filter := NewFilterState()
	assert.True(t, filter.IsEmpty())

	filter.ToggleStage("s1")
	assert.False(t, filter.IsEmpty())
	filter.ToggleStage("s1")
	assert.True(t, filter.IsEmpty())

	filter.Search = "   "
	assert.True(t, filter.IsEmpty())
}

func TestTagNameMatcherWildcard(t *testing.T) {
	match := TagNameMatcher("vi%")

	assert.True(t, match("vip"))
	assert.True(t, match("Vitrina"))
	assert.False(t, match("activo"))

	// Anchored: the pattern must cover the whole name.
	assert.False(t, TagNameMatcher("%ip")("vip-gold"))
	assert.True(t, TagNameMatcher("%ip")("vip"))
}

func TestTagNameMatcherSubstringFallback(t *testing.T) {
	match := TagNameMatcher("tri")

	assert.True(t, match("vitrina"))
	assert.True(t, match("VITRINA"))
	assert.False(t, match("vip"))
}

func TestTagNameMatcherBlankMatchesAll(t *testing.T) {
	match := TagNameMatcher("  ")
	assert.True(t, match("anything"))
}

func TestTagNameMatcherMetaCharactersAreLiteral(t *testing.T) {
	match := TagNameMatcher("a.b%")
	assert.True(t, match("a.b-tag"))
	assert.False(t, match("aXb-tag"))
}
