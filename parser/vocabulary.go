// Package parser recognizes inline action tags in a streamed model response.
// It splits the response into Markdown spans and tag records such as
// <oliveagent-write>, <think> and <oliveagent-execute-sql>, and it classifies
// each tag as pending, finished or aborted.
//
// The buffer is re-parsed from scratch after every chunk, so every function
// here is pure and safe to call on any prefix of the final response.
package parser

import "strings"

// TagName identifies a recognized custom tag
type TagName string

const (
	TagWrite            TagName = "oliveagent-write"
	TagRename           TagName = "oliveagent-rename"
	TagDelete           TagName = "oliveagent-delete"
	TagAddDependency    TagName = "oliveagent-add-dependency"
	TagExecuteSQL       TagName = "oliveagent-execute-sql"
	TagAddIntegration   TagName = "oliveagent-add-integration"
	TagOutput           TagName = "oliveagent-output"
	TagProblemReport    TagName = "oliveagent-problem-report"
	TagChatSummary      TagName = "oliveagent-chat-summary"
	TagEdit             TagName = "oliveagent-edit"
	TagSearchReplace    TagName = "oliveagent-search-replace"
	TagCodebaseContext  TagName = "oliveagent-codebase-context"
	TagWebSearchResult  TagName = "oliveagent-web-search-result"
	TagWebSearch        TagName = "oliveagent-web-search"
	TagWebCrawl         TagName = "oliveagent-web-crawl"
	TagCodeSearchResult TagName = "oliveagent-code-search-result"
	TagCodeSearch       TagName = "oliveagent-code-search"
	TagRead             TagName = "oliveagent-read"
	TagThink            TagName = "think"
	TagCommand          TagName = "oliveagent-command"
	TagMcpToolCall      TagName = "oliveagent-mcp-tool-call"
	TagMcpToolResult    TagName = "oliveagent-mcp-tool-result"
)

// String returns the tag name as it appears in markup
func (t TagName) String() string {
	return string(t)
}

// IsActionable reports whether finished tags of this kind mutate the project
func (t TagName) IsActionable() bool {
	switch t {
	case TagWrite, TagRename, TagDelete, TagAddDependency, TagExecuteSQL, TagSearchReplace:
		return true
	default:
		return false
	}
}

// Vocabulary is an ordered, immutable set of tag names. The repair and
// segmentation passes must be given the same Vocabulary.
type Vocabulary struct {
	names []TagName
	index map[TagName]int
}

// DefaultVocabulary is the tag set understood by Parse
var DefaultVocabulary = NewVocabulary(
	TagWrite,
	TagRename,
	TagDelete,
	TagAddDependency,
	TagExecuteSQL,
	TagAddIntegration,
	TagOutput,
	TagProblemReport,
	TagChatSummary,
	TagEdit,
	TagSearchReplace,
	TagCodebaseContext,
	TagWebSearchResult,
	TagWebSearch,
	TagWebCrawl,
	TagCodeSearchResult,
	TagCodeSearch,
	TagRead,
	TagThink,
	TagCommand,
	TagMcpToolCall,
	TagMcpToolResult,
)

// NewVocabulary builds a vocabulary; duplicates and empty names are dropped
func NewVocabulary(names ...TagName) Vocabulary {
	v := Vocabulary{
		names: make([]TagName, 0, len(names)),
		index: make(map[TagName]int, len(names)),
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, seen := v.index[name]; seen {
			continue
		}
		v.index[name] = len(v.names)
		v.names = append(v.names, name)
	}
	return v
}

// Names returns a copy of the tag names in declaration order
func (v Vocabulary) Names() []TagName {
	out := make([]TagName, len(v.names))
	copy(out, v.names)
	return out
}

// Len returns the number of tag names
func (v Vocabulary) Len() int {
	return len(v.names)
}

// Contains reports whether name belongs to the vocabulary
func (v Vocabulary) Contains(name TagName) bool {
	_, ok := v.index[name]
	return ok
}

// openingNameAt returns the vocabulary name whose opening tag starts at
// buffer[pos], which must be '<'. The name has to be followed by whitespace
// or '>' so that "think" never matches "<thinking>".
func (v Vocabulary) openingNameAt(buffer string, pos int) (TagName, bool) {
	rest := buffer[pos+1:]
	for _, name := range v.names {
		if !strings.HasPrefix(rest, string(name)) {
			continue
		}
		after := len(name)
		if after == len(rest) {
			continue
		}
		if c := rest[after]; c == '>' || isSpace(c) {
			return name, true
		}
	}
	return "", false
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
