package source

import "strings"

// TagFilter is the configurable fuzzy matcher for remote tag filtering.
// Remote systems put the operator's tag in any of several loosely related
// fields (tags, folder, notes, status), so matching is a bidirectional
// case-insensitive substring test over whichever of those fields the
// deployment lists, consulted in order. This is a best-effort heuristic,
// not a strict contract.
type TagFilter struct {
	// Fields names the remote fields to consult, in order.
	Fields []string
}

func NewTagFilter(fields []string) TagFilter {
	return TagFilter{Fields: fields}
}

// Match reports whether any configured field value overlaps the wanted tag.
// values maps field name to the remote value for one order.
func (f TagFilter) Match(wanted string, values map[string]string) bool {
	wanted = strings.ToLower(strings.TrimSpace(wanted))
	if wanted == "" {
		return true
	}
	for _, field := range f.Fields {
		v := strings.ToLower(strings.TrimSpace(values[field]))
		if v == "" {
			continue
		}
		if strings.Contains(v, wanted) || strings.Contains(wanted, v) {
			return true
		}
	}
	return false
}
