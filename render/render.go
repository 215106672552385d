// Package render draws a parsed response for a terminal: Markdown through
// glamour and each tag as a small lipgloss card with a state badge.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"tagstream/parser"
	"tagstream/records"
)

// maxBodyLines caps how much of a tag body a card shows
const maxBodyLines = 6

// Options controls the renderer
type Options struct {
	// WordWrap is the Markdown wrap column; 0 disables wrapping
	WordWrap int
	// Style is a glamour style name; "" and "auto" detect the terminal
	Style string
}

// Renderer turns messages into terminal text
type Renderer struct {
	markdown *glamour.TermRenderer
}

// New creates a Renderer
func New(opts Options) (*Renderer, error) {
	var style glamour.TermRendererOption
	if opts.Style == "" || opts.Style == "auto" {
		style = glamour.WithAutoStyle()
	} else {
		style = glamour.WithStandardStyle(opts.Style)
	}

	md, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(opts.WordWrap))
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return &Renderer{markdown: md}, nil
}

// Render draws every piece of msg in order
func (r *Renderer) Render(msg *parser.Message) (string, error) {
	var blocks []string
	for i := range msg.Pieces {
		piece := &msg.Pieces[i]
		if !piece.IsTag() {
			if strings.TrimSpace(piece.Markdown) == "" {
				continue
			}
			out, err := r.markdown.Render(piece.Markdown)
			if err != nil {
				return "", fmt.Errorf("failed to render markdown: %w", err)
			}
			blocks = append(blocks, strings.Trim(out, "\n"))
			continue
		}
		if block := Tag(records.Decode(piece.Tag), piece.State); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n"), nil
}

// Tag draws one record. Chat summaries and unknown records draw nothing.
func Tag(record records.Record, state parser.TagState) string {
	var title, subject string
	var body []string

	switch r := record.(type) {
	case records.Write:
		title, subject = "Write", r.Path
		body = appendNonEmpty(body, r.Description, lineCount(r.Content))
	case records.Edit:
		title, subject = "Edit", r.Path
		body = appendNonEmpty(body, r.Description, lineCount(r.Content))
	case records.SearchReplace:
		title, subject = "Search & replace", r.Path
		body = appendNonEmpty(body, r.Description)
	case records.Rename:
		title, subject = "Rename", r.From+" → "+r.To
	case records.Delete:
		title, subject = "Delete", r.Path
	case records.AddDependency:
		title, subject = "Add dependency", strings.Join(r.Packages, " ")
	case records.ExecuteSQL:
		title, subject = "SQL", r.Description
		body = append(body, clip(r.Query))
	case records.AddIntegration:
		title, subject = "Integration", r.Provider
		body = appendNonEmpty(body, clip(r.Content))
	case records.Output:
		title = "Output"
		label := warnStyle.Render("warning")
		if r.Type == "error" {
			label = errorStyle.Render("error")
		}
		subject = label + " " + r.Message
		body = appendNonEmpty(body, clip(r.Content))
	case records.ProblemReport:
		title, subject = "Problems", r.Summary
		body = appendNonEmpty(body, clip(r.Content))
	case records.CodebaseContext:
		title, subject = "Codebase context", r.Files
	case records.WebSearch:
		title, subject = "Web search", r.Query
	case records.WebSearchResult:
		title = "Search results"
		body = appendNonEmpty(body, clip(r.Content))
	case records.WebCrawl:
		title = "Web crawl"
		body = appendNonEmpty(body, clip(r.Content))
	case records.CodeSearch:
		title, subject = "Code search", r.Query
	case records.CodeSearchResult:
		title = "Code search results"
		body = appendNonEmpty(body, clip(r.Content))
	case records.Read:
		title, subject = "Read", r.Path
	case records.Think:
		title = "Thinking"
		if text := clip(r.Content); text != "" {
			body = append(body, thinkStyle.Render(text))
		}
	case records.McpToolCall:
		title, subject = "Tool call", r.Server+"/"+r.Tool
		body = appendNonEmpty(body, clip(r.Content))
	case records.McpToolResult:
		title, subject = "Tool result", r.Server+"/"+r.Tool
		body = appendNonEmpty(body, clip(r.Content))
	case records.Command:
		if r.Type == "" {
			return ""
		}
		return suggestionStyle.Render("→ Suggested: " + r.Type)
	case records.ChatSummary:
		return ""
	default:
		return ""
	}

	header := titleStyle.Render(title)
	if subject != "" {
		header += " " + subjectStyle.Render(subject)
	}
	header += "  " + Badge(state)

	lines := []string{header}
	for _, line := range body {
		lines = append(lines, bodyStyle.Render(line))
	}

	style := cardStyle
	if state == parser.StateAborted {
		style = abortedCardStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

// Badge labels a tag state
func Badge(state parser.TagState) string {
	switch state {
	case parser.StatePending:
		return pendingBadgeStyle.Render("◌ in progress")
	case parser.StateAborted:
		return abortedBadgeStyle.Render("✗ did not finish")
	default:
		return finishedBadgeStyle.Render("✓ done")
	}
}

func appendNonEmpty(lines []string, values ...string) []string {
	for _, v := range values {
		if v != "" {
			lines = append(lines, v)
		}
	}
	return lines
}

func lineCount(content string) string {
	content = strings.Trim(content, "\n")
	if content == "" {
		return ""
	}
	n := strings.Count(content, "\n") + 1
	if n == 1 {
		return "1 line"
	}
	return fmt.Sprintf("%d lines", n)
}

// clip trims text to maxBodyLines lines
func clip(text string) string {
	text = strings.TrimSpace(text)
	lines := strings.Split(text, "\n")
	if len(lines) <= maxBodyLines {
		return text
	}
	return strings.Join(lines[:maxBodyLines], "\n") + fmt.Sprintf("\n… %d more lines", len(lines)-maxBodyLines)
}
