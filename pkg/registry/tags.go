package registry

import "strings"

// TagAny is the wildcard type tag accepted by and offered to every port.
const TagAny = "any"

// ParseTags splits a comma-separated port type declaration into its tags.
// Whitespace around tags is trimmed and empty tags are dropped.
func ParseTags(decl string) []string {
	if decl == "" {
		return nil
	}
	parts := strings.Split(decl, ",")
	tags := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// TagsCompatible reports whether an output declared as out can feed an
// input declared as in. The two tag sets must intersect, or either side
// must carry [TagAny]. An empty declaration on either side is permissive.
func TagsCompatible(out, in string) bool {
	outTags, inTags := ParseTags(out), ParseTags(in)
	if len(outTags) == 0 || len(inTags) == 0 {
		return true
	}
	accepted := make(map[string]bool, len(inTags))
	for _, t := range inTags {
		if t == TagAny {
			return true
		}
		accepted[t] = true
	}
	for _, t := range outTags {
		if t == TagAny || accepted[t] {
			return true
		}
	}
	return false
}
