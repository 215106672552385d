package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantRaw   []string
		wantTypes []PieceType
	}{
		{
			name:      "leading and trailing markdown",
			input:     "a<think>b</think>c",
			wantRaw:   []string{"a", "<think>b</think>", "c"},
			wantTypes: []PieceType{PieceMarkdown, PieceTag, PieceMarkdown},
		},
		{
			name:      "adjacent tags produce no empty markdown",
			input:     "<think>a</think><think>b</think>",
			wantRaw:   []string{"<think>a</think>", "<think>b</think>"},
			wantTypes: []PieceType{PieceTag, PieceTag},
		},
		{
			name:      "body spans newlines",
			input:     "<oliveagent-write path=\"a.go\">\npackage a\n\nfunc A() {}\n</oliveagent-write>",
			wantRaw:   []string{"<oliveagent-write path=\"a.go\">\npackage a\n\nfunc A() {}\n</oliveagent-write>"},
			wantTypes: []PieceType{PieceTag},
		},
		{
			name:      "body ends at the first matching close",
			input:     "<think>a<think>b</think></think>",
			wantRaw:   []string{"<think>a<think>b</think>", "</think>"},
			wantTypes: []PieceType{PieceTag, PieceMarkdown},
		},
		{
			name:      "other tags nest inside a body",
			input:     "<oliveagent-write path=\"a\">x<think>y</think>z</oliveagent-write>",
			wantRaw:   []string{"<oliveagent-write path=\"a\">x<think>y</think>z</oliveagent-write>"},
			wantTypes: []PieceType{PieceTag},
		},
		{
			name:      "opening tag without a later close stays markdown",
			input:     "</think>x<think>y",
			wantRaw:   []string{"</think>x<think>y"},
			wantTypes: []PieceType{PieceMarkdown},
		},
		{
			name:      "unknown tag names are markdown",
			input:     "<oliveagent-teleport to=\"mars\">now</oliveagent-teleport>",
			wantRaw:   []string{"<oliveagent-teleport to=\"mars\">now</oliveagent-teleport>"},
			wantTypes: []PieceType{PieceMarkdown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pieces := Segment(tt.input, DefaultVocabulary, nil)
			require.Len(t, pieces, len(tt.wantRaw))
			for i := range pieces {
				assert.Equal(t, tt.wantTypes[i], pieces[i].Type, "piece %d", i)
				assert.Equal(t, tt.wantRaw[i], pieces[i].Raw(), "piece %d", i)
			}
		})
	}
}

func TestSegmentAttributes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Attributes
	}{
		{
			name:  "multiple attributes",
			input: `<oliveagent-mcp-tool-call server="fs" tool="read_file">{}</oliveagent-mcp-tool-call>`,
			want:  Attributes{"server": "fs", "tool": "read_file"},
		},
		{
			name:  "last duplicate wins",
			input: `<oliveagent-write path="a.ts" path="b.ts">x</oliveagent-write>`,
			want:  Attributes{"path": "b.ts"},
		},
		{
			name:  "malformed fragments are skipped",
			input: `<oliveagent-write path=a.ts description="ok" broken="x>y</oliveagent-write>`,
			want:  Attributes{"description": "ok"},
		},
		{
			name:  "empty value",
			input: `<oliveagent-add-dependency packages="">x</oliveagent-add-dependency>`,
			want:  Attributes{"packages": ""},
		},
		{
			name:  "newlines between attributes",
			input: "<oliveagent-search-replace\n  path=\"a.ts\"\n  description=\"fix\">x</oliveagent-search-replace>",
			want:  Attributes{"path": "a.ts", "description": "fix"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pieces := Segment(tt.input, DefaultVocabulary, nil)
			require.NotEmpty(t, pieces)
			require.True(t, pieces[0].IsTag())
			assert.Equal(t, tt.want, pieces[0].Tag.Attributes)
			assert.Equal(t, "", pieces[0].Tag.Attr("missing"))
		})
	}
}

func TestSegmentManyUnclosedTags(t *testing.T) {
	const n = 5000
	input := strings.Repeat("<think>", n) + "tail"
	repair := RepairUnclosedTags(input, DefaultVocabulary)
	pieces := Segment(repair.Repaired, DefaultVocabulary, repair.InProgress)

	require.Len(t, pieces, 2)
	require.True(t, pieces[0].IsTag())
	assert.True(t, pieces[0].Tag.InProgress)
	assert.Equal(t, strings.Repeat("</think>", n-1), pieces[1].Markdown)
}

func TestSegmentUnclosedWithoutRepairIsLinear(t *testing.T) {
	// every opening misses its close; the lookup cache keeps this fast
	input := strings.Repeat("<think> x ", 20000)
	pieces := Segment(input, DefaultVocabulary, nil)
	require.Len(t, pieces, 1)
	assert.Equal(t, input, pieces[0].Markdown)
}
