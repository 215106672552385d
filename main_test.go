package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewCLI()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestParseCommandJSON(t *testing.T) {
	chdir(t, t.TempDir())
	file := filepath.Join(t.TempDir(), "response.txt")
	require.NoError(t, os.WriteFile(file, []byte(`Done <oliveagent-delete path="a.txt"></oliveagent-delete><think>open`), 0644))

	out, err := runCLI(t, "", "parse", file, "--json")
	require.NoError(t, err)

	var decoded struct {
		Pieces []struct {
			State string `json:"state"`
		} `json:"pieces"`
		Plan struct {
			Deletes []string `json:"deletes"`
		} `json:"plan"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded.Pieces, 3)
	assert.Equal(t, "finished", decoded.Pieces[1].State)
	assert.Equal(t, "aborted", decoded.Pieces[2].State)
	assert.Equal(t, []string{"a.txt"}, decoded.Plan.Deletes)
}

func TestParseCommandStreamingStdin(t *testing.T) {
	chdir(t, t.TempDir())
	out, err := runCLI(t, "<think>open", "parse", "--json", "--streaming")
	require.NoError(t, err)
	assert.Contains(t, out, `"state": "pending"`)
}

func TestParseCommandSSE(t *testing.T) {
	chdir(t, t.TempDir())
	body := "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"<think>hi</think>\"}}]}\n\ndata: [DONE]\n"
	out, err := runCLI(t, body, "parse", "--format", "sse", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"state": "finished"`)
}

func TestParseCommandRendered(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("tagstream.yaml", []byte("render:\n  style: notty\n"), 0644))

	out, err := runCLI(t, `<oliveagent-delete path="old.go"></oliveagent-delete>`, "parse")
	require.NoError(t, err)
	assert.Contains(t, out, "Delete")
	assert.Contains(t, out, "old.go")
	assert.Contains(t, out, "1 delete")
}

func TestParseCommandBadFormat(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := runCLI(t, "x", "parse", "--format", "xml")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tagstream v")
}

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
