package notify

import (
	"fmt"
	"html"

	"rules-radar/internal/domain/entity"
	"rules-radar/internal/utils/text"
)

// messageCharBudget is the per-message size ceiling. Telegram caps
// messages at 4096 UTF-16 units; 3500 leaves headroom for entities.
const messageCharBudget = 3500

// pendingSummaryPlaceholder stands in for a summary that is still
// deferred when the notification goes out.
const pendingSummaryPlaceholder = "Резюме появится в следующем отчёте."

// regionOrder is the fixed section order of a report.
var regionOrder = []entity.Region{entity.RegionEU, entity.RegionMD, entity.RegionGlobal}

var regionBadges = map[entity.Region]string{
	entity.RegionEU:     "🇪🇺",
	entity.RegionMD:     "🇲🇩",
	entity.RegionGlobal: "🌍",
}

// Section is one region bucket of a report, rendered into one or more
// messages that each fit the budget.
type Section struct {
	Region   entity.Region
	Messages []string
}

// BuildSections groups items by region in the fixed order EU, MD,
// GLOBAL. Unknown regions fold into GLOBAL; empty buckets are skipped;
// item order within a bucket is preserved.
func BuildSections(items []*entity.Item) []Section {
	buckets := make(map[entity.Region][]*entity.Item, len(regionOrder))
	for _, item := range items {
		region := item.Region
		if !region.Known() {
			region = entity.RegionGlobal
		}
		buckets[region] = append(buckets[region], item)
	}

	sections := make([]Section, 0, len(regionOrder))
	for _, region := range regionOrder {
		bucket := buckets[region]
		if len(bucket) == 0 {
			continue
		}
		sections = append(sections, Section{
			Region:   region,
			Messages: renderMessages(region, bucket),
		})
	}
	return sections
}

// renderMessages renders a bucket into messages, splitting only at item
// boundaries. A single item that cannot fit on its own is truncated
// rather than dropped.
func renderMessages(region entity.Region, items []*entity.Item) []string {
	header := fmt.Sprintf("%s <b>[%s]</b> — %d", regionBadges[region], region, len(items))
	contHeader := fmt.Sprintf("%s <b>[%s]</b> (продолжение)", regionBadges[region], region)

	var messages []string
	current := header
	hasBlocks := false

	flush := func() {
		messages = append(messages, current)
		current = contHeader
		hasBlocks = false
	}

	for _, item := range items {
		block := renderItem(item)

		if text.CountRunes(current)+2+text.CountRunes(block) > messageCharBudget {
			if hasBlocks {
				flush()
			}
			// Still too large alone: trim the block to fit.
			if text.CountRunes(current)+2+text.CountRunes(block) > messageCharBudget {
				block = text.TruncateRunes(block, messageCharBudget-text.CountRunes(current)-2, "…")
			}
		}

		current += "\n\n" + block
		hasBlocks = true
	}

	if hasBlocks {
		messages = append(messages, current)
	}
	return messages
}

func renderItem(item *entity.Item) string {
	title := item.Title
	if title == "" {
		title = item.Tag
	}
	summary := item.SummaryRU
	if summary == "" {
		summary = pendingSummaryPlaceholder
	}
	return fmt.Sprintf("<b>%s</b>\n%s\n%s",
		html.EscapeString(title),
		html.EscapeString(item.URL),
		html.EscapeString(summary),
	)
}
