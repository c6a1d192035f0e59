package network

import "strings"

// Labels returns the per-atom mapping labels. A token written as a bracket
// list ("[a][b][c]") expands into one label per bracket. When there are fewer
// tokens than atoms, a plain token ("abc") labels one atom per character.
func (m AtomMap) Labels() []string {
	labels := make([]string, 0, len(m.Elements))
	perChar := len(m.Mapping) < len(m.Elements)
	for _, tok := range m.Mapping {
		if !strings.Contains(tok, "[") {
			if perChar {
				for _, r := range tok {
					labels = append(labels, string(r))
				}
				continue
			}
			labels = append(labels, tok)
			continue
		}
		for _, part := range strings.Split(tok, "][") {
			part = strings.ReplaceAll(part, "[", "")
			part = strings.ReplaceAll(part, "]", "")
			labels = append(labels, part)
		}
	}
	return labels
}

// Aligned reports whether the expanded labels line up with the elements and
// positions, i.e. whether the atom map can be rendered.
func (m AtomMap) Aligned() bool {
	if len(m.Mapping) == 0 || len(m.Elements) != len(m.Positions) {
		return false
	}
	return len(m.Labels()) == len(m.Elements)
}
