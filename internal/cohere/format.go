package cohere

import (
	"github.com/charmbracelet/llmconn/internal/catalog"
	cohere "github.com/cohere-ai/cohere-go/v2"
)

func toEntries(models []*cohere.GetModelResponse) []catalog.Entry {
	entries := make([]catalog.Entry, 0, len(models))
	for _, m := range models {
		if m == nil || m.Name == nil {
			continue
		}
		entries = append(entries, catalog.Entry{
			ID:    *m.Name,
			Name:  *m.Name,
			Owner: "cohere",
		})
	}
	return entries
}
