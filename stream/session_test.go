package stream

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagstream/metrics"
	"tagstream/parser"
)

func TestSessionAppendAndFinish(t *testing.T) {
	var updates []*parser.Message
	s := NewSession(Options{OnUpdate: func(msg *parser.Message) { updates = append(updates, msg) }})

	require.NoError(t, s.Append("Hello <oliveagent-write path=\"a.txt\">"))
	require.NoError(t, s.Append("partial"))

	latest := s.Latest()
	require.Len(t, latest.Tags(), 1)
	assert.Equal(t, parser.StatePending, latest.Tags()[0].State)
	assert.True(t, s.Streaming())

	final := s.Finish()
	require.Len(t, final.Tags(), 1)
	assert.Equal(t, parser.StateAborted, final.Tags()[0].State)
	assert.Equal(t, "partial", final.Tags()[0].Tag.Content)
	assert.False(t, s.Streaming())
	assert.Len(t, updates, 3)

	assert.ErrorIs(t, s.Append("more"), ErrFinished)
	assert.Same(t, final, s.Finish())
	assert.Len(t, updates, 3)
}

func TestSessionFinishedTagStaysFinished(t *testing.T) {
	s := NewSession(Options{})
	require.NoError(t, s.Append("<think>done</think> tail"))
	final := s.Finish()
	require.Len(t, final.Tags(), 1)
	assert.Equal(t, parser.StateFinished, final.Tags()[0].State)
	assert.Equal(t, "<think>done</think> tail", s.Buffer())
}

func TestSessionThrottle(t *testing.T) {
	now := time.Unix(0, 0)
	s := NewSession(Options{MinReparseInterval: 100 * time.Millisecond})
	s.now = func() time.Time { return now }

	require.NoError(t, s.Append("<think>a"))
	first := s.Latest()
	assert.False(t, s.Pending())

	now = now.Add(10 * time.Millisecond)
	require.NoError(t, s.Append("b"))
	assert.Same(t, first, s.Latest())
	assert.True(t, s.Pending())

	now = now.Add(200 * time.Millisecond)
	require.NoError(t, s.Append("c"))
	assert.False(t, s.Pending())
	assert.Equal(t, "abc", s.Latest().Tags()[0].Tag.Content)
}

func TestSessionFinishFlushesThrottledChunks(t *testing.T) {
	now := time.Unix(0, 0)
	s := NewSession(Options{MinReparseInterval: time.Hour})
	s.now = func() time.Time { return now }

	require.NoError(t, s.Append("<think>a"))
	require.NoError(t, s.Append("</think>"))
	assert.True(t, s.Pending())

	final := s.Finish()
	assert.Equal(t, parser.StateFinished, final.Tags()[0].State)
}

func TestSessionConcurrentAppends(t *testing.T) {
	s := NewSession(Options{})
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				_ = s.Append("x")
				_ = s.Latest()
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.Len(t, s.Finish().RawContent, 400)
}

func TestSessionRecordsMetrics(t *testing.T) {
	m := metrics.New()
	s := NewSession(Options{Metrics: m})
	require.NoError(t, s.Append("a"))
	require.NoError(t, s.Append("b"))
	s.Finish()

	assert.Equal(t, 2, testutil.CollectAndCount(m.Registry(), "tagstream_parses_total"))
}

func TestSessionCountsStreamedTagOnce(t *testing.T) {
	m := metrics.New()
	s := NewSession(Options{Metrics: m})
	for _, chunk := range []string{"<oliveagent-delete ", `path="a"`, "></oliveagent-", "delete>", "<think>", "still"} {
		require.NoError(t, s.Append(chunk))
	}
	s.Finish()

	expected := `
# HELP tagstream_tags_total Tags in final (non-streaming) snapshots, by name and lifecycle state.
# TYPE tagstream_tags_total counter
tagstream_tags_total{state="aborted",tag="think"} 1
tagstream_tags_total{state="finished",tag="oliveagent-delete"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "tagstream_tags_total"))

	expectedCloses := `
# HELP tagstream_synthetic_closes_total Closing tags appended to repair final (non-streaming) snapshots.
# TYPE tagstream_synthetic_closes_total counter
tagstream_synthetic_closes_total{tag="think"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expectedCloses), "tagstream_synthetic_closes_total"))
}

func sseBody(deltas ...string) string {
	var b strings.Builder
	for _, d := range deltas {
		fmt.Fprintf(&b, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":%q},\"finish_reason\":null}]}\n\n", d)
	}
	return b.String()
}

func TestReadSSE(t *testing.T) {
	body := ": keep-alive\n\n" +
		sseBody("Intro ", "<oliveagent-delete path=\"old.go\">", "</oliveagent-delete>") +
		"data: not json\n\n" +
		"data: [DONE]\n\n" +
		sseBody("ignored")

	s := NewSession(Options{})
	require.NoError(t, ReadSSE(context.Background(), strings.NewReader(body), s))

	assert.False(t, s.Streaming())
	assert.Equal(t, "Intro <oliveagent-delete path=\"old.go\"></oliveagent-delete>", s.Buffer())
	tags := s.Latest().Tags()
	require.Len(t, tags, 1)
	assert.Equal(t, "old.go", tags[0].Tag.Attr("path"))
	assert.Equal(t, parser.StateFinished, tags[0].State)
}

func TestReadSSEStopsAtFinishReason(t *testing.T) {
	body := sseBody("<think>") +
		"data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"cut\"},\"finish_reason\":\"length\"}]}\n\n" +
		sseBody("never")

	s := NewSession(Options{})
	require.NoError(t, ReadSSE(context.Background(), strings.NewReader(body), s))

	assert.Equal(t, "<think>cut", s.Buffer())
	assert.Equal(t, parser.StateAborted, s.Latest().Tags()[0].State)
}

func TestReadSSECancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSession(Options{})
	err := ReadSSE(ctx, strings.NewReader(sseBody("<think>x")), s)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, s.Streaming())
}

func TestReadText(t *testing.T) {
	input := "See <oliveagent-rename from=\"a\" to=\"b\"></oliveagent-rename> and <think>unfinished"

	var snapshots int
	s := NewSession(Options{OnUpdate: func(*parser.Message) { snapshots++ }})
	require.NoError(t, ReadText(context.Background(), iotest.HalfReader(strings.NewReader(input)), s, 8))

	assert.Equal(t, input, s.Buffer())
	assert.Greater(t, snapshots, 2)

	tags := s.Latest().Tags()
	require.Len(t, tags, 2)
	assert.Equal(t, parser.StateFinished, tags[0].State)
	assert.Equal(t, parser.StateAborted, tags[1].State)
}

func TestReadTextErrors(t *testing.T) {
	s := NewSession(Options{})
	assert.Error(t, ReadText(context.Background(), strings.NewReader("x"), s, 0))

	s = NewSession(Options{})
	err := ReadText(context.Background(), iotest.ErrReader(fmt.Errorf("boom")), s, 4)
	assert.ErrorContains(t, err, "boom")
	assert.False(t, s.Streaming())
}
