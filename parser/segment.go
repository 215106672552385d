package parser

import "strings"

// scanState is the position of the segmenter relative to the tag grammar
type scanState int

const (
	scanOutside scanState = iota
	scanInOpeningTag
	scanInBody
	scanInClosingTag
)

func (s scanState) String() string {
	switch s {
	case scanOutside:
		return "Outside"
	case scanInOpeningTag:
		return "InOpeningTag"
	case scanInBody:
		return "InBody"
	case scanInClosingTag:
		return "InClosingTag"
	default:
		return "Unknown"
	}
}

// closeLookup caches the first closing tag at or after from; at is -1 when
// there is none
type closeLookup struct {
	from int
	at   int
}

type segmenter struct {
	buf        string
	vocab      Vocabulary
	inProgress InProgressOffsets

	state   scanState
	pos     int
	emitted int
	open    openingTag
	bodyEnd int

	closes map[TagName]closeLookup
	pieces []ContentPiece
}

// Segment splits a repaired buffer into Markdown and tag pieces in document
// order. A tag is `<name attrs>body</name>` where body is the shortest run up
// to the first matching closing tag; an opening tag without any later
// closing tag is left as Markdown. inProgress is the offset set produced by
// RepairUnclosedTags for the same buffer and vocabulary.
func Segment(repaired string, vocab Vocabulary, inProgress InProgressOffsets) []ContentPiece {
	s := &segmenter{
		buf:        repaired,
		vocab:      vocab,
		inProgress: inProgress,
		closes:     make(map[TagName]closeLookup),
	}
	s.run()
	return s.pieces
}

func (s *segmenter) run() {
	for {
		switch s.state {
		case scanOutside:
			idx := strings.IndexByte(s.buf[s.pos:], '<')
			if idx < 0 {
				s.flushMarkdown(len(s.buf))
				return
			}
			s.pos += idx
			s.state = scanInOpeningTag

		case scanInOpeningTag:
			tag, ok := matchOpeningTag(s.buf, s.pos, s.vocab)
			if !ok {
				s.pos++
				s.state = scanOutside
				continue
			}
			s.open = tag
			s.state = scanInBody

		case scanInBody:
			at := s.nextClose(s.open.name, s.open.end)
			if at < 0 {
				// never closed: the '<' is plain text, resume right after it
				s.pos = s.open.start + 1
				s.state = scanOutside
				continue
			}
			s.bodyEnd = at
			s.state = scanInClosingTag

		case scanInClosingTag:
			end := s.bodyEnd + len(closingTag(s.open.name))
			s.flushMarkdown(s.open.start)
			s.emitTag(end)
			s.emitted = end
			s.pos = end
			s.state = scanOutside
		}
	}
}

// nextClose returns the offset of the first closing tag of name at or after
// from, or -1. Lookups are cached per name so repeated unclosed openings of
// the same tag do not rescan the rest of the buffer.
func (s *segmenter) nextClose(name TagName, from int) int {
	if c, ok := s.closes[name]; ok && from >= c.from && (c.at < 0 || c.at >= from) {
		return c.at
	}
	at := strings.Index(s.buf[from:], closingTag(name))
	if at >= 0 {
		at += from
	}
	s.closes[name] = closeLookup{from: from, at: at}
	return at
}

func (s *segmenter) flushMarkdown(upTo int) {
	if upTo <= s.emitted {
		return
	}
	s.pieces = append(s.pieces, ContentPiece{
		Type:     PieceMarkdown,
		Markdown: s.buf[s.emitted:upTo],
	})
}

func (s *segmenter) emitTag(end int) {
	open := s.open
	attrs := s.buf[open.start+1+len(open.name) : open.end-1]
	s.pieces = append(s.pieces, ContentPiece{
		Type: PieceTag,
		Tag: &TagRecord{
			Name:       open.name,
			Attributes: ParseAttributes(attrs),
			Content:    s.buf[open.end:s.bodyEnd],
			InProgress: s.inProgress.Has(open.name, open.start),
			Start:      open.start,
			End:        end,
			Raw:        s.buf[open.start:end],
		},
	})
}
