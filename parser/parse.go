package parser

// Parse runs the full pipeline over buffer with DefaultVocabulary: escape
// attribute brackets, repair unclosed tags, segment, and derive a state for
// every tag piece. It never fails; anything that is not a well-formed tag
// stays in a Markdown piece.
func Parse(buffer string, isStreaming bool) *Message {
	return ParseWithVocabulary(buffer, isStreaming, DefaultVocabulary)
}

// ParseWithVocabulary is Parse with a caller supplied vocabulary
func ParseWithVocabulary(buffer string, isStreaming bool, vocab Vocabulary) *Message {
	escaped := escapeAttributes(buffer, vocab)
	repair := RepairUnclosedTags(escaped, vocab)
	pieces := Segment(repair.Repaired, vocab, repair.InProgress)

	for i := range pieces {
		if pieces[i].IsTag() {
			pieces[i].State = DeriveState(pieces[i].Tag.InProgress, isStreaming)
		}
	}

	msg := &Message{
		RawContent:  buffer,
		Escaped:     escaped,
		Repaired:    repair.Repaired,
		IsStreaming: isStreaming,
		Pieces:      pieces,
	}
	if len(repair.SyntheticCloses) > 0 {
		msg.SyntheticCloses = repair.SyntheticCloses
	}
	if msg.Pieces == nil {
		msg.Pieces = []ContentPiece{}
	}
	return msg
}
