package ollama

import (
	"github.com/charmbracelet/llmconn/internal/catalog"
	"github.com/ollama/ollama/api"
)

func toEntries(models []api.ListModelResponse) []catalog.Entry {
	entries := make([]catalog.Entry, 0, len(models))
	for _, m := range models {
		id := m.Model
		if id == "" {
			id = m.Name
		}
		entries = append(entries, catalog.Entry{
			ID:      id,
			Name:    m.Name,
			Owner:   "local",
			Created: m.ModifiedAt,
		})
	}
	return entries
}
