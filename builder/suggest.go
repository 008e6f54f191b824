package builder

import (
	"fmt"
	"strings"

	"cbe/block"
	"cbe/config"
)

// Suggestions returns palette entries whose title or description contains
// query, case is ignored. Empty query returns whole palette.
func (b *Builder) Suggestions(query string) []config.SuggestionConfig {
	q := strings.ToLower(strings.TrimSpace(query))
	var res []config.SuggestionConfig
	for _, s := range b.cfg.Palette {
		if q == "" ||
			strings.Contains(strings.ToLower(s.Title), q) ||
			strings.Contains(strings.ToLower(s.Description), q) {
			res = append(res, s)
		}
	}
	return res
}

// InsertSuggestion inserts and focuses block described by palette entry.
func (b *Builder) InsertSuggestion(s config.SuggestionConfig, index int) (block.Block, error) {
	t, err := block.ParseType(s.BlockType)
	if err != nil {
		return block.Block{}, fmt.Errorf("bad suggestion %q: %w", s.Title, err)
	}
	return b.Insert(t, index, block.Options(s.BlockOptions).Clone(), true)
}
