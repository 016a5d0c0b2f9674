package analytics

import (
	"strings"
	"unicode"
)

// Normalizer cleans up free-text labels before they are counted. The same
// normalizer is applied to skills, fields of study and degrees. A disabled
// normalizer returns labels unchanged.
type Normalizer struct {
	Enabled bool
	// Aliases maps a raw label to its canonical form, e.g. "Ph.D." to
	// "Doctorate". Lookup happens before stripping.
	Aliases map[string]string
}

// DefaultAliases holds the degree spellings seen in volunteer profiles.
var DefaultAliases = map[string]string{
	"Ph.D.": "Doctorate",
	"PhD":   "Doctorate",
}

func (n Normalizer) Apply(label string) string {
	if !n.Enabled {
		return label
	}
	label = strings.TrimSpace(label)
	if alias, ok := n.Aliases[label]; ok {
		label = alias
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '&' {
			return -1
		}
		return r
	}, label)
}
