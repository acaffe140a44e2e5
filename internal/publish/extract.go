package publish

import (
	"sort"
	"strings"

	"github.com/publora/publora/pkg/domain"
)

// ExtractPayload pulls provider-appropriate text out of a content document's
// block structure. Thread-capable providers receive the ordered part list;
// single-text providers receive the parts joined with blank lines and
// truncated to their maximum length.
func ExtractPayload(content domain.Content, capabilities domain.ProviderCapabilities) domain.PublishPayload {
	parts := collectParts(content.Blocks)

	if len(parts) == 0 {
		return domain.PublishPayload{}
	}

	maxLength := capabilities.MaxTextLength()

	if capabilities.SupportsThreads() {
		truncated := make([]string, 0, len(parts))
		for _, part := range parts {
			truncated = append(truncated, truncateRunes(part, maxLength))
		}
		return domain.PublishPayload{Parts: truncated}
	}

	joined := truncateRunes(strings.Join(parts, "\n\n"), maxLength)

	return domain.PublishPayload{Parts: []string{joined}}
}

func collectParts(blocks []domain.Block) []string {
	var parts []string

	for _, block := range blocks {
		switch block.Type {
		case domain.BlockType_Text:
			if text := strings.TrimSpace(block.Text); text != "" {
				parts = append(parts, text)
			}
		case domain.BlockType_Thread:
			ordered := make([]domain.ThreadPart, len(block.Parts))
			copy(ordered, block.Parts)
			sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

			for _, threadPart := range ordered {
				if text := strings.TrimSpace(threadPart.Text); text != "" {
					parts = append(parts, text)
				}
			}
		}
	}

	return parts
}

func truncateRunes(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
