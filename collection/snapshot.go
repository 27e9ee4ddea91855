package collection

import (
	"maps"
	"slices"

	"github.com/jmacd/promptdj/palette"
	"github.com/jmacd/promptdj/prompt"
)

// Snapshot is a copy of the collection at one point in time. Holders may
// keep and modify it freely.
type Snapshot struct {
	// Prompts are in insertion order.
	Prompts  []prompt.Prompt
	Filtered map[string]bool
}

// Get returns the prompt with id.
func (s Snapshot) Get(id string) (prompt.Prompt, bool) {
	i := slices.IndexFunc(s.Prompts, func(p prompt.Prompt) bool { return p.ID == id })
	if i < 0 {
		return prompt.Prompt{}, false
	}
	return s.Prompts[i], true
}

// Clone returns a copy that shares nothing with s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Prompts: slices.Clone(s.Prompts), Filtered: maps.Clone(s.Filtered)}
}

func (s Snapshot) Len() int {
	return len(s.Prompts)
}

// IDs returns the prompt IDs in insertion order.
func (s Snapshot) IDs() []string {
	ids := make([]string, len(s.Prompts))
	for i, p := range s.Prompts {
		ids[i] = p.ID
	}
	return ids
}

// Display returns the prompts as they should be drawn: filtered prompts
// take the neutral colour. Weights and positions are unchanged.
func (s Snapshot) Display() []prompt.Prompt {
	out := slices.Clone(s.Prompts)
	for i := range out {
		if s.Filtered[out[i].ID] {
			out[i].Color = palette.ColorNeutral
		}
	}
	return out
}
