package openai

import (
	"time"

	"github.com/charmbracelet/llmconn/internal/catalog"
	"github.com/openai/openai-go"
)

func toEntries(models []openai.Model) []catalog.Entry {
	entries := make([]catalog.Entry, 0, len(models))
	for _, m := range models {
		entry := catalog.Entry{
			ID:    m.ID,
			Name:  m.ID,
			Owner: m.OwnedBy,
		}
		if m.Created > 0 {
			entry.Created = time.Unix(m.Created, 0).UTC()
		}
		entries = append(entries, entry)
	}
	return entries
}
