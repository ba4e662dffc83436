// Package format holds presentation helpers shared by handlers and templates:
// class-name composition, number display and image source resolution.
package format

import (
	"sort"
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
)

func init() {
	// twmerge builds its default config lazily on first use; do it before any
	// concurrent callers exist.
	_ = twmerge.Merge("p-0")
}

// Classes composes a class attribute from parts and resolves Tailwind utility conflicts.
//
// Accepted parts are string, []string, []any (recursively), map[string]bool
// (keys whose value is true, in sorted order) and bool/nil, which contribute nothing.
// Among conflicting utilities the last one wins and duplicates collapse.
// The result is "" when nothing is active.
func Classes(parts ...any) string {
	var tokens []string
	collect(&tokens, parts)
	if len(tokens) == 0 {
		return ""
	}
	return twmerge.Merge(strings.Join(tokens, " "))
}

func collect(dst *[]string, parts []any) {
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			*dst = append(*dst, strings.Fields(v)...)
		case []string:
			for _, s := range v {
				*dst = append(*dst, strings.Fields(s)...)
			}
		case []any:
			collect(dst, v)
		case map[string]bool:
			keys := make([]string, 0, len(v))
			for k, on := range v {
				if on {
					keys = append(keys, k)
				}
			}
			sort.Strings(keys)
			for _, k := range keys {
				*dst = append(*dst, strings.Fields(k)...)
			}
		}
	}
}
