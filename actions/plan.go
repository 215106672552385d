// Package actions turns finished tags of a parsed response into the list of
// side effects a caller may apply: file writes, renames, deletions, package
// installs and SQL queries. Nothing here touches the filesystem.
package actions

import (
	"fmt"
	"path"
	"strings"

	"tagstream/logger"
	"tagstream/parser"
	"tagstream/records"
)

// FileChange is a write or search-replace against one file
type FileChange struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content"`
}

// Move renames a file
type Move struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Query is one SQL statement batch
type Query struct {
	Description string `json:"description,omitempty"`
	Content     string `json:"content"`
}

// Skipped is an actionable tag left out of the plan
type Skipped struct {
	Tag    parser.TagName  `json:"tag"`
	State  parser.TagState `json:"state"`
	Reason string          `json:"reason"`
}

// Plan lists the side effects requested by one response, in document order
// within each kind
type Plan struct {
	Writes         []FileChange `json:"writes,omitempty"`
	SearchReplaces []FileChange `json:"search_replaces,omitempty"`
	Renames        []Move       `json:"renames,omitempty"`
	Deletes        []string     `json:"deletes,omitempty"`
	Packages       []string     `json:"packages,omitempty"`
	Queries        []Query      `json:"queries,omitempty"`
	Commands       []string     `json:"commands,omitempty"`
	ChatSummary    string       `json:"chat_summary,omitempty"`
	Skipped        []Skipped    `json:"skipped,omitempty"`
}

// BuildPlan collects the finished actionable tags of msg. Pending and aborted
// tags, and tags missing a required attribute, land in Skipped.
func BuildPlan(msg *parser.Message, log *logger.ObservabilityLogger) *Plan {
	plan := &Plan{}
	if msg == nil {
		return plan
	}

	for _, entry := range records.FromMessage(msg) {
		kind := entry.Record.Kind()

		if entry.State != parser.StateFinished {
			if kind.IsActionable() {
				plan.skip(log, kind, entry.State, "tag "+entry.State.String())
			}
			continue
		}

		switch r := entry.Record.(type) {
		case records.Write:
			if r.Path == "" {
				plan.skip(log, kind, entry.State, "missing path")
				continue
			}
			plan.Writes = append(plan.Writes, FileChange{
				Path:        NormalizePath(r.Path),
				Description: r.Description,
				Content:     StripCodeFence(r.Content),
			})
		case records.SearchReplace:
			if r.Path == "" {
				plan.skip(log, kind, entry.State, "missing path")
				continue
			}
			plan.SearchReplaces = append(plan.SearchReplaces, FileChange{
				Path:        NormalizePath(r.Path),
				Description: r.Description,
				Content:     StripCodeFence(r.Content),
			})
		case records.Rename:
			if r.From == "" || r.To == "" {
				plan.skip(log, kind, entry.State, "missing from or to")
				continue
			}
			plan.Renames = append(plan.Renames, Move{From: NormalizePath(r.From), To: NormalizePath(r.To)})
		case records.Delete:
			if r.Path == "" {
				plan.skip(log, kind, entry.State, "missing path")
				continue
			}
			plan.Deletes = append(plan.Deletes, NormalizePath(r.Path))
		case records.AddDependency:
			if len(r.Packages) == 0 {
				plan.skip(log, kind, entry.State, "missing packages")
				continue
			}
			plan.Packages = append(plan.Packages, r.Packages...)
		case records.ExecuteSQL:
			plan.Queries = append(plan.Queries, Query{Description: r.Description, Content: StripCodeFence(r.Query)})
		case records.Command:
			if r.Type != "" {
				plan.Commands = append(plan.Commands, r.Type)
			}
		case records.ChatSummary:
			if plan.ChatSummary == "" {
				plan.ChatSummary = r.Summary
			}
		}
	}
	return plan
}

func (p *Plan) skip(log *logger.ObservabilityLogger, tag parser.TagName, state parser.TagState, reason string) {
	p.Skipped = append(p.Skipped, Skipped{Tag: tag, State: state, Reason: reason})
	log.ActionSkipped("", tag.String(), reason, map[string]interface{}{"state": state.String()})
}

// Empty reports whether the plan has no side effects to apply
func (p *Plan) Empty() bool {
	return len(p.Writes) == 0 && len(p.SearchReplaces) == 0 && len(p.Renames) == 0 &&
		len(p.Deletes) == 0 && len(p.Packages) == 0 && len(p.Queries) == 0
}

// Summary describes the plan in one line, e.g. "2 writes, 1 delete"
func (p *Plan) Summary() string {
	var parts []string
	add := func(n int, singular, plural string) {
		switch {
		case n == 1:
			parts = append(parts, "1 "+singular)
		case n > 1:
			parts = append(parts, fmt.Sprintf("%d %s", n, plural))
		}
	}
	add(len(p.Writes), "write", "writes")
	add(len(p.SearchReplaces), "search-replace", "search-replaces")
	add(len(p.Renames), "rename", "renames")
	add(len(p.Deletes), "delete", "deletes")
	add(len(p.Packages), "package", "packages")
	add(len(p.Queries), "query", "queries")
	add(len(p.Skipped), "skipped", "skipped")
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ")
}

// NormalizePath converts separators to forward slashes and cleans the result
func NormalizePath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, `\`, "/"))
	if p == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean(p), "./")
}

// StripCodeFence trims content and drops a leading and a trailing line that
// open or close a Markdown code fence
func StripCodeFence(content string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(lines[len(lines)-1], "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
