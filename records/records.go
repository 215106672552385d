// Package records turns generic tag records into typed values, one struct per
// tag kind, so renderers and executors never read attribute maps directly.
package records

import (
	"strings"

	"tagstream/parser"
)

// Record is a typed view of one parsed tag
type Record interface {
	Kind() parser.TagName
}

// Write creates or overwrites a file
type Write struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content"`
}

// Rename moves a file
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Delete removes a file
type Delete struct {
	Path string `json:"path"`
}

// AddDependency installs packages
type AddDependency struct {
	Packages []string `json:"packages"`
}

// ExecuteSQL runs a query against the project database
type ExecuteSQL struct {
	Description string `json:"description,omitempty"`
	Query       string `json:"query"`
}

// AddIntegration asks the user to connect a provider
type AddIntegration struct {
	Provider string `json:"provider"`
	Content  string `json:"content,omitempty"`
}

// Output is a warning or error surfaced by the model
type Output struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Content string `json:"content,omitempty"`
}

// ProblemReport summarizes compile or type errors
type ProblemReport struct {
	Summary string `json:"summary"`
	Content string `json:"content,omitempty"`
}

// ChatSummary is a title for the conversation; it is never rendered
type ChatSummary struct {
	Summary string `json:"summary"`
}

// Edit is a free-form edit of a file
type Edit struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content"`
}

// SearchReplace applies search/replace blocks to a file
type SearchReplace struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content"`
}

// CodebaseContext lists files sent to the model as context
type CodebaseContext struct {
	Files   string `json:"files"`
	Content string `json:"content,omitempty"`
}

// WebSearch is a search query issued by the model
type WebSearch struct {
	Query string `json:"query"`
}

// WebSearchResult carries search results
type WebSearchResult struct {
	Content string `json:"content"`
}

// WebCrawl is a crawled page
type WebCrawl struct {
	Content string `json:"content"`
}

// CodeSearch is a code search query
type CodeSearch struct {
	Query string `json:"query"`
}

// CodeSearchResult carries code search matches
type CodeSearchResult struct {
	Content string `json:"content"`
}

// Read shows that the model read a file
type Read struct {
	Path string `json:"path"`
}

// Think is the model's reasoning
type Think struct {
	Content string `json:"content"`
}

// Command is a suggested follow-up action such as "rebuild" or "restart"
type Command struct {
	Type string `json:"type"`
}

// McpToolCall is a call to a tool on an MCP server
type McpToolCall struct {
	Server  string `json:"server"`
	Tool    string `json:"tool"`
	Content string `json:"content,omitempty"`
}

// McpToolResult is the result of an MCP tool call
type McpToolResult struct {
	Server  string `json:"server"`
	Tool    string `json:"tool"`
	Content string `json:"content,omitempty"`
}

func (Write) Kind() parser.TagName            { return parser.TagWrite }
func (Rename) Kind() parser.TagName           { return parser.TagRename }
func (Delete) Kind() parser.TagName           { return parser.TagDelete }
func (AddDependency) Kind() parser.TagName    { return parser.TagAddDependency }
func (ExecuteSQL) Kind() parser.TagName       { return parser.TagExecuteSQL }
func (AddIntegration) Kind() parser.TagName   { return parser.TagAddIntegration }
func (Output) Kind() parser.TagName           { return parser.TagOutput }
func (ProblemReport) Kind() parser.TagName    { return parser.TagProblemReport }
func (ChatSummary) Kind() parser.TagName      { return parser.TagChatSummary }
func (Edit) Kind() parser.TagName             { return parser.TagEdit }
func (SearchReplace) Kind() parser.TagName    { return parser.TagSearchReplace }
func (CodebaseContext) Kind() parser.TagName  { return parser.TagCodebaseContext }
func (WebSearch) Kind() parser.TagName        { return parser.TagWebSearch }
func (WebSearchResult) Kind() parser.TagName  { return parser.TagWebSearchResult }
func (WebCrawl) Kind() parser.TagName         { return parser.TagWebCrawl }
func (CodeSearch) Kind() parser.TagName       { return parser.TagCodeSearch }
func (CodeSearchResult) Kind() parser.TagName { return parser.TagCodeSearchResult }
func (Read) Kind() parser.TagName             { return parser.TagRead }
func (Think) Kind() parser.TagName            { return parser.TagThink }
func (Command) Kind() parser.TagName          { return parser.TagCommand }
func (McpToolCall) Kind() parser.TagName      { return parser.TagMcpToolCall }
func (McpToolResult) Kind() parser.TagName    { return parser.TagMcpToolResult }

// Decode converts tag into its typed record. Missing attributes become empty
// strings; deciding whether that is acceptable is left to the caller. Tags
// outside the vocabulary decode to nil.
func Decode(tag *parser.TagRecord) Record {
	if tag == nil {
		return nil
	}
	attr := tag.Attr
	switch tag.Name {
	case parser.TagWrite:
		return Write{Path: attr("path"), Description: attr("description"), Content: tag.Content}
	case parser.TagRename:
		return Rename{From: attr("from"), To: attr("to")}
	case parser.TagDelete:
		return Delete{Path: attr("path")}
	case parser.TagAddDependency:
		return AddDependency{Packages: strings.Fields(attr("packages"))}
	case parser.TagExecuteSQL:
		return ExecuteSQL{Description: attr("description"), Query: tag.Content}
	case parser.TagAddIntegration:
		return AddIntegration{Provider: attr("provider"), Content: tag.Content}
	case parser.TagOutput:
		return Output{Type: attr("type"), Message: attr("message"), Content: tag.Content}
	case parser.TagProblemReport:
		return ProblemReport{Summary: attr("summary"), Content: tag.Content}
	case parser.TagChatSummary:
		return ChatSummary{Summary: strings.TrimSpace(tag.Content)}
	case parser.TagEdit:
		return Edit{Path: attr("path"), Description: attr("description"), Content: tag.Content}
	case parser.TagSearchReplace:
		return SearchReplace{Path: attr("path"), Description: attr("description"), Content: tag.Content}
	case parser.TagCodebaseContext:
		return CodebaseContext{Files: attr("files"), Content: tag.Content}
	case parser.TagWebSearch:
		return WebSearch{Query: strings.TrimSpace(tag.Content)}
	case parser.TagWebSearchResult:
		return WebSearchResult{Content: tag.Content}
	case parser.TagWebCrawl:
		return WebCrawl{Content: tag.Content}
	case parser.TagCodeSearch:
		return CodeSearch{Query: strings.TrimSpace(tag.Content)}
	case parser.TagCodeSearchResult:
		return CodeSearchResult{Content: tag.Content}
	case parser.TagRead:
		return Read{Path: attr("path")}
	case parser.TagThink:
		return Think{Content: tag.Content}
	case parser.TagCommand:
		return Command{Type: attr("type")}
	case parser.TagMcpToolCall:
		return McpToolCall{Server: attr("server"), Tool: attr("tool"), Content: tag.Content}
	case parser.TagMcpToolResult:
		return McpToolResult{Server: attr("server"), Tool: attr("tool"), Content: tag.Content}
	default:
		return nil
	}
}

// Entry pairs a typed record with the lifecycle state of its tag
type Entry struct {
	Record Record
	State  parser.TagState
	Tag    *parser.TagRecord
}

// FromMessage decodes every tag piece of msg in document order
func FromMessage(msg *parser.Message) []Entry {
	var entries []Entry
	for _, piece := range msg.Pieces {
		if !piece.IsTag() {
			continue
		}
		record := Decode(piece.Tag)
		if record == nil {
			continue
		}
		entries = append(entries, Entry{Record: record, State: piece.State, Tag: piece.Tag})
	}
	return entries
}
