package parser

import "strings"

// PieceType distinguishes Markdown spans from tag records
type PieceType int

const (
	PieceMarkdown PieceType = iota
	PieceTag
)

// String returns the string representation of the PieceType
func (p PieceType) String() string {
	switch p {
	case PieceMarkdown:
		return "markdown"
	case PieceTag:
		return "custom-tag"
	default:
		return "markdown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (p PieceType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// TagRecord is one recognized tag and its body
type TagRecord struct {
	Name       TagName    `json:"tag"`
	Attributes Attributes `json:"attributes"`
	Content    string     `json:"content"`
	// InProgress is true iff the closing tag was appended by the repair pass
	InProgress bool   `json:"in_progress"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Raw        string `json:"-"`
}

// Attr is shorthand for Attributes.Get
func (t *TagRecord) Attr(name string) string {
	return t.Attributes.Get(name)
}

// ContentPiece is either a Markdown span or a tag record. State is set only
// on tag pieces returned by Parse.
type ContentPiece struct {
	Type     PieceType  `json:"type"`
	Markdown string     `json:"content,omitempty"`
	Tag      *TagRecord `json:"tag,omitempty"`
	State    TagState   `json:"state,omitempty"`
}

// IsTag returns true if this piece holds a tag record
func (p *ContentPiece) IsTag() bool {
	return p.Type == PieceTag && p.Tag != nil
}

// Raw returns the exact span of the repaired buffer this piece covers
func (p *ContentPiece) Raw() string {
	if p.IsTag() {
		return p.Tag.Raw
	}
	return p.Markdown
}

// Message is a fully parsed snapshot of a response buffer
type Message struct {
	RawContent  string         `json:"raw_content"`
	Escaped     string         `json:"-"`
	Repaired    string         `json:"-"`
	IsStreaming bool           `json:"is_streaming"`
	Pieces      []ContentPiece `json:"pieces"`
	// SyntheticCloses counts the closing tags appended per name
	SyntheticCloses map[TagName]int `json:"synthetic_closes,omitempty"`
}

// Tags returns the tag pieces in document order
func (m *Message) Tags() []ContentPiece {
	var tags []ContentPiece
	for _, piece := range m.Pieces {
		if piece.IsTag() {
			tags = append(tags, piece)
		}
	}
	return tags
}

// TagsByName returns the tag pieces with the given name
func (m *Message) TagsByName(name TagName) []ContentPiece {
	var tags []ContentPiece
	for _, piece := range m.Pieces {
		if piece.IsTag() && piece.Tag.Name == name {
			tags = append(tags, piece)
		}
	}
	return tags
}

// HasTags returns true if at least one tag was recognized
func (m *Message) HasTags() bool {
	for _, piece := range m.Pieces {
		if piece.IsTag() {
			return true
		}
	}
	return false
}

// SyntheticCloseCount returns the total number of appended closing tags
func (m *Message) SyntheticCloseCount() int {
	n := 0
	for _, count := range m.SyntheticCloses {
		n += count
	}
	return n
}

// Reconstruct concatenates the raw spans of all pieces
func (m *Message) Reconstruct() string {
	var b strings.Builder
	b.Grow(len(m.Repaired))
	for i := range m.Pieces {
		b.WriteString(m.Pieces[i].Raw())
	}
	return b.String()
}
