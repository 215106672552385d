package parser

import "regexp"

// attributePattern matches name="value" pairs; anything else is skipped
var attributePattern = regexp.MustCompile(`(\w+)="([^"]*)"`)

// Attributes maps attribute names to their raw string values
type Attributes map[string]string

// Get returns the value of name, or "" when the attribute is absent
func (a Attributes) Get(name string) string {
	return a[name]
}

// Has reports whether name was present on the tag
func (a Attributes) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// ParseAttributes extracts name="value" pairs. When a name repeats, the last
// value wins.
func ParseAttributes(s string) Attributes {
	attrs := make(Attributes)
	for _, m := range attributePattern.FindAllStringSubmatch(s, -1) {
		attrs[m[1]] = m[2]
	}
	return attrs
}
