package domain

import "strings"

type Tag struct {
	ID   int
	Name string
}

// NormalizeTagName returns the canonical form of a tag name. An empty result
// means the name carries no tag.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
