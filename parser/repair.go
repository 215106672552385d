package parser

import (
	"sort"
	"strings"
)

// InProgressOffsets records, per tag name, the byte offsets of opening tags
// whose closing tag had to be synthesized
type InProgressOffsets map[TagName]map[int]struct{}

// Has reports whether the opening tag of name at offset was left unclosed
func (o InProgressOffsets) Has(name TagName, offset int) bool {
	set, ok := o[name]
	if !ok {
		return false
	}
	_, ok = set[offset]
	return ok
}

// Offsets returns the in-progress offsets recorded for name in ascending order
func (o InProgressOffsets) Offsets(name TagName) []int {
	set := o[name]
	out := make([]int, 0, len(set))
	for offset := range set {
		out = append(out, offset)
	}
	sort.Ints(out)
	return out
}

// Len returns the total number of in-progress opening tags
func (o InProgressOffsets) Len() int {
	n := 0
	for _, set := range o {
		n += len(set)
	}
	return n
}

// RepairResult is the output of RepairUnclosedTags
type RepairResult struct {
	// Repaired is the input with synthetic closing tags appended
	Repaired string
	// InProgress holds offsets into the input (and therefore into Repaired,
	// since repairs are only ever appended)
	InProgress InProgressOffsets
	// SyntheticCloses counts the closing tags appended per name
	SyntheticCloses map[TagName]int
}

// openingTag describes one opening tag found in a buffer
type openingTag struct {
	name  TagName
	start int // offset of '<'
	end   int // offset one past '>'
}

// matchOpeningTag matches `<name(\s[^>]*)?>` at buffer[pos]
func matchOpeningTag(buffer string, pos int, vocab Vocabulary) (openingTag, bool) {
	if buffer[pos] != '<' {
		return openingTag{}, false
	}
	name, ok := vocab.openingNameAt(buffer, pos)
	if !ok {
		return openingTag{}, false
	}
	attrStart := pos + 1 + len(name)
	gt := strings.IndexByte(buffer[attrStart:], '>')
	if gt < 0 {
		return openingTag{}, false
	}
	return openingTag{name: name, start: pos, end: attrStart + gt + 1}, true
}

// findOpeningTags returns the non-overlapping opening tags of name in
// document order
func findOpeningTags(buffer string, name TagName, vocab Vocabulary) []openingTag {
	prefix := "<" + string(name)
	var tags []openingTag
	pos := 0
	for pos < len(buffer) {
		idx := strings.Index(buffer[pos:], prefix)
		if idx < 0 {
			break
		}
		start := pos + idx
		tag, ok := matchOpeningTag(buffer, start, vocab)
		if !ok || tag.name != name {
			pos = start + 1
			continue
		}
		tags = append(tags, tag)
		pos = tag.end
	}
	return tags
}

func closingTag(name TagName) string {
	return "</" + string(name) + ">"
}

// RepairUnclosedTags balances opening and closing tags for every name in
// vocab. When a name has more openings than closings, the missing closings
// are appended to the end of the buffer and the most recent openings are
// marked in progress: a streaming model emits tags in sequence, so only the
// trailing ones can still be open. Names with as many or more closings than
// openings are left alone.
func RepairUnclosedTags(buffer string, vocab Vocabulary) RepairResult {
	result := RepairResult{
		Repaired:        buffer,
		InProgress:      make(InProgressOffsets),
		SyntheticCloses: make(map[TagName]int),
	}

	var suffix strings.Builder
	for _, name := range vocab.names {
		if !strings.Contains(buffer, "<"+string(name)) {
			continue
		}
		openings := findOpeningTags(buffer, name, vocab)
		closeTag := closingTag(name)
		missing := len(openings) - strings.Count(buffer, closeTag)
		if missing <= 0 {
			continue
		}

		offsets := make(map[int]struct{}, missing)
		for _, tag := range openings[len(openings)-missing:] {
			offsets[tag.start] = struct{}{}
		}
		result.InProgress[name] = offsets
		result.SyntheticCloses[name] = missing
		suffix.WriteString(strings.Repeat(closeTag, missing))
	}

	if suffix.Len() > 0 {
		result.Repaired = buffer + suffix.String()
	}
	return result
}
