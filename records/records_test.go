package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagstream/parser"
)

func decodeOne(t *testing.T, input string) Record {
	t.Helper()
	tags := parser.Parse(input, false).Tags()
	require.Len(t, tags, 1)
	return Decode(tags[0].Tag)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Record
	}{
		{
			name:  "write",
			input: `<oliveagent-write path="src/a.tsx" description="Add A">export {}</oliveagent-write>`,
			want:  Write{Path: "src/a.tsx", Description: "Add A", Content: "export {}"},
		},
		{
			name:  "rename",
			input: `<oliveagent-rename from="a.ts" to="b.ts"></oliveagent-rename>`,
			want:  Rename{From: "a.ts", To: "b.ts"},
		},
		{
			name:  "delete",
			input: `<oliveagent-delete path="a.ts"></oliveagent-delete>`,
			want:  Delete{Path: "a.ts"},
		},
		{
			name:  "add dependency splits packages",
			input: `<oliveagent-add-dependency packages="zod  react-query"></oliveagent-add-dependency>`,
			want:  AddDependency{Packages: []string{"zod", "react-query"}},
		},
		{
			name:  "execute sql",
			input: `<oliveagent-execute-sql description="drop">DROP TABLE t;</oliveagent-execute-sql>`,
			want:  ExecuteSQL{Description: "drop", Query: "DROP TABLE t;"},
		},
		{
			name:  "output",
			input: `<oliveagent-output type="warning" message="careful">details</oliveagent-output>`,
			want:  Output{Type: "warning", Message: "careful", Content: "details"},
		},
		{
			name:  "chat summary is trimmed",
			input: "<oliveagent-chat-summary>\n  Fix login\n</oliveagent-chat-summary>",
			want:  ChatSummary{Summary: "Fix login"},
		},
		{
			name:  "mcp tool call",
			input: `<oliveagent-mcp-tool-call server="github" tool="list_issues">{"repo":"x"}</oliveagent-mcp-tool-call>`,
			want:  McpToolCall{Server: "github", Tool: "list_issues", Content: `{"repo":"x"}`},
		},
		{
			name:  "command",
			input: `<oliveagent-command type="rebuild"></oliveagent-command>`,
			want:  Command{Type: "rebuild"},
		},
		{
			name:  "missing attribute is empty",
			input: `<oliveagent-write>body</oliveagent-write>`,
			want:  Write{Content: "body"},
		},
		{
			name:  "think",
			input: `<think>hmm</think>`,
			want:  Think{Content: "hmm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeOne(t, tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Kind(), got.Kind())
		})
	}
}

func TestDecodeCoversVocabulary(t *testing.T) {
	for _, name := range parser.DefaultVocabulary.Names() {
		record := Decode(&parser.TagRecord{Name: name, Attributes: parser.Attributes{}})
		require.NotNil(t, record, "no record type for %s", name)
		assert.Equal(t, name, record.Kind())
	}
	assert.Nil(t, Decode(&parser.TagRecord{Name: "oliveagent-unknown"}))
	assert.Nil(t, Decode(nil))
}

func TestFromMessage(t *testing.T) {
	msg := parser.Parse(`<think>done</think> text <oliveagent-write path="a.ts">partial`, true)
	entries := FromMessage(msg)

	require.Len(t, entries, 2)
	assert.Equal(t, Think{Content: "done"}, entries[0].Record)
	assert.Equal(t, parser.StateFinished, entries[0].State)
	assert.Equal(t, Write{Path: "a.ts", Content: "partial"}, entries[1].Record)
	assert.Equal(t, parser.StatePending, entries[1].State)
}
