package parser

import "strings"

// Substitutes for angle brackets found inside attribute values. They render
// like brackets but can never open or close a tag.
const (
	EscapedLessThan    = "＜"
	EscapedGreaterThan = "＞"
)

// EscapeAttributeAngleBrackets replaces every '<' and '>' that appears inside
// a double-quoted attribute value of a recognized opening tag. Tag bodies,
// including tags nested inside them, and text outside recognized tags are
// left untouched. The result is stable under
// repeated application.
func EscapeAttributeAngleBrackets(buffer string) string {
	return escapeAttributes(buffer, DefaultVocabulary)
}

func escapeAttributes(buffer string, vocab Vocabulary) string {
	if !strings.Contains(buffer, "<") {
		return buffer
	}

	var b strings.Builder
	copied := 0
	pos := 0
	for pos < len(buffer) {
		idx := strings.IndexByte(buffer[pos:], '<')
		if idx < 0 {
			break
		}
		start := pos + idx
		name, ok := vocab.openingNameAt(buffer, start)
		if !ok {
			pos = start + 1
			continue
		}

		// Walk the attribute list. Brackets inside quotes are rewritten; the
		// first '>' outside quotes ends the opening tag. A tag still being
		// streamed simply runs to the end of the buffer.
		i := start + 1 + len(name)
		inQuote := false
		for ; i < len(buffer); i++ {
			c := buffer[i]
			if c == '"' {
				inQuote = !inQuote
				continue
			}
			if !inQuote {
				if c == '>' {
					break
				}
				continue
			}
			if c != '<' && c != '>' {
				continue
			}
			if b.Len() == 0 {
				b.Grow(len(buffer) + 16)
			}
			b.WriteString(buffer[copied:i])
			if c == '<' {
				b.WriteString(EscapedLessThan)
			} else {
				b.WriteString(EscapedGreaterThan)
			}
			copied = i + 1
		}
		if i >= len(buffer) {
			break
		}

		// The body runs to the first matching close and is never rewritten.
		// Without a close the body is the rest of the buffer.
		closing := closingTag(name)
		end := strings.Index(buffer[i+1:], closing)
		if end < 0 {
			break
		}
		pos = i + 1 + end + len(closing)
	}

	if copied == 0 {
		return buffer
	}
	b.WriteString(buffer[copied:])
	return b.String()
}
