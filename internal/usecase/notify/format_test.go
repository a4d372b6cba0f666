package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rules-radar/internal/domain/entity"
	"rules-radar/internal/utils/text"
)

func item(tag string, region entity.Region, summary string) *entity.Item {
	return &entity.Item{
		Tag:       tag,
		URL:       "https://example.com/" + tag,
		Region:    region,
		Title:     "Правила " + tag,
		SummaryRU: summary,
	}
}

func TestBuildSectionsFixedRegionOrder(t *testing.T) {
	items := []*entity.Item{
		item("g1", entity.RegionGlobal, "с1"),
		item("e1", entity.RegionEU, "с2"),
		item("m1", entity.RegionMD, "с3"),
		item("e2", entity.RegionEU, "с4"),
	}

	sections := BuildSections(items)
	require.Len(t, sections, 3)

	assert.Equal(t, entity.RegionEU, sections[0].Region)
	assert.Equal(t, entity.RegionMD, sections[1].Region)
	assert.Equal(t, entity.RegionGlobal, sections[2].Region)

	// In-bucket order follows the input order.
	euText := strings.Join(sections[0].Messages, "\n")
	assert.Less(t, strings.Index(euText, "e1"), strings.Index(euText, "e2"))

	// Header carries the badge and the bucket count.
	assert.Contains(t, sections[0].Messages[0], "🇪🇺 <b>[EU]</b> — 2")
	assert.Contains(t, sections[1].Messages[0], "🇲🇩 <b>[MD]</b> — 1")
	assert.Contains(t, sections[2].Messages[0], "🌍 <b>[GLOBAL]</b> — 1")
}

func TestBuildSectionsUnknownRegionFoldsToGlobal(t *testing.T) {
	items := []*entity.Item{
		{Tag: "x", URL: "https://example.com/x", Region: entity.Region("ASIA"), SummaryRU: "s"},
	}
	sections := BuildSections(items)
	require.Len(t, sections, 1)
	assert.Equal(t, entity.RegionGlobal, sections[0].Region)
}

func TestBuildSectionsSkipsEmptyBuckets(t *testing.T) {
	sections := BuildSections([]*entity.Item{item("m1", entity.RegionMD, "s")})
	require.Len(t, sections, 1)
	assert.Equal(t, entity.RegionMD, sections[0].Region)
}

func TestBuildSectionsSplitsAtItemBoundaries(t *testing.T) {
	long := strings.Repeat("д", 1500)
	items := []*entity.Item{
		item("a", entity.RegionEU, long),
		item("b", entity.RegionEU, long),
		item("c", entity.RegionEU, long),
	}

	sections := BuildSections(items)
	require.Len(t, sections, 1)
	messages := sections[0].Messages
	require.Greater(t, len(messages), 1)

	for _, msg := range messages {
		assert.LessOrEqual(t, text.CountRunes(msg), messageCharBudget)
	}

	// Items are never split across messages.
	for _, tag := range []string{"a", "b", "c"} {
		found := 0
		for _, msg := range messages {
			if strings.Contains(msg, "https://example.com/"+tag) {
				found++
				assert.Contains(t, msg, strings.Repeat("д", 100))
			}
		}
		assert.Equal(t, 1, found, "item %s must appear in exactly one message", tag)
	}

	// Continuation messages restate the section label.
	assert.Contains(t, messages[1], "(продолжение)")
}

func TestBuildSectionsTruncatesOversizedItem(t *testing.T) {
	items := []*entity.Item{item("huge", entity.RegionGlobal, strings.Repeat("ж", 5000))}
	sections := BuildSections(items)
	require.Len(t, sections, 1)
	require.Len(t, sections[0].Messages, 1)
	assert.LessOrEqual(t, text.CountRunes(sections[0].Messages[0]), messageCharBudget)
	assert.Contains(t, sections[0].Messages[0], "…")
}

func TestRenderItemEscapesHTML(t *testing.T) {
	rendered := renderItem(&entity.Item{
		Tag:       "ads",
		URL:       "https://example.com/a?x=1&y=2",
		Region:    entity.RegionEU,
		Title:     "Rules <v2> & more",
		SummaryRU: "Лимит стал <10",
	})
	assert.Contains(t, rendered, "Rules &lt;v2&gt; &amp; more")
	assert.Contains(t, rendered, "x=1&amp;y=2")
	assert.Contains(t, rendered, "&lt;10")
	assert.NotContains(t, rendered, "<v2>")
}

func TestRenderItemFallbacks(t *testing.T) {
	rendered := renderItem(&entity.Item{Tag: "ads", URL: "https://example.com/a", Region: entity.RegionEU})
	assert.Contains(t, rendered, "<b>ads</b>")
	assert.Contains(t, rendered, pendingSummaryPlaceholder)
}
