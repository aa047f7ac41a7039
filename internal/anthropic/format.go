package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/charmbracelet/llmconn/internal/catalog"
)

func toEntries(models []anthropic.ModelInfo) []catalog.Entry {
	entries := make([]catalog.Entry, 0, len(models))
	for _, m := range models {
		entries = append(entries, catalog.Entry{
			ID:      m.ID,
			Name:    m.DisplayName,
			Owner:   "anthropic",
			Created: m.CreatedAt,
		})
	}
	return entries
}
