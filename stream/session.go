// Package stream accumulates model output chunk by chunk and re-parses the
// whole buffer after each one, so observers always see a complete snapshot.
package stream

import (
	"errors"
	"strings"
	"sync"
	"time"

	"tagstream/logger"
	"tagstream/metrics"
	"tagstream/parser"
)

// ErrFinished is returned by Append once the session has been finished
var ErrFinished = errors.New("stream session already finished")

// Options configures a Session
type Options struct {
	RequestID string
	// Vocabulary defaults to parser.DefaultVocabulary when empty
	Vocabulary parser.Vocabulary
	// MinReparseInterval skips re-parsing chunks that arrive sooner than this
	// after the previous parse. Finish always re-parses.
	MinReparseInterval time.Duration
	// OnUpdate receives every new snapshot. It runs with the session locked
	// and must not call back into the session.
	OnUpdate func(*parser.Message)
	Logger   *logger.ObservabilityLogger
	Metrics  *metrics.Metrics
}

// Session owns one growing response buffer
type Session struct {
	opts Options
	now  func() time.Time

	mu        sync.Mutex
	buffer    strings.Builder
	streaming bool
	dirty     bool
	chunks    int
	lastParse time.Time
	latest    *parser.Message
}

// NewSession creates a streaming session with an empty buffer
func NewSession(opts Options) *Session {
	if opts.Vocabulary.Len() == 0 {
		opts.Vocabulary = parser.DefaultVocabulary
	}
	s := &Session{
		opts:      opts,
		now:       time.Now,
		streaming: true,
	}
	s.latest = parser.ParseWithVocabulary("", true, opts.Vocabulary)
	return s
}

// Append adds chunk to the buffer and re-parses unless throttled
func (s *Session) Append(chunk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.streaming {
		return ErrFinished
	}
	if chunk == "" {
		return nil
	}

	s.buffer.WriteString(chunk)
	s.chunks++
	s.opts.Metrics.ObserveChunk()

	if s.opts.MinReparseInterval > 0 && !s.lastParse.IsZero() &&
		s.now().Sub(s.lastParse) < s.opts.MinReparseInterval {
		s.dirty = true
		return nil
	}
	s.reparse()
	return nil
}

// Finish marks the stream complete. Tags still open become aborted. Calling
// Finish again returns the same snapshot.
func (s *Session) Finish() *parser.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.streaming {
		return s.latest
	}
	s.streaming = false
	s.reparse()

	for _, piece := range s.latest.Tags() {
		if piece.State != parser.StateFinished {
			s.opts.Logger.TagLifecycle(s.opts.RequestID, piece.Tag.Name.String(), piece.State.String(), map[string]interface{}{
				"start": piece.Tag.Start,
			})
		}
	}
	s.opts.Logger.Info(logger.ComponentStream, logger.CategorySuccess, s.opts.RequestID, "Stream finished", map[string]interface{}{
		"chunks":           s.chunks,
		"bytes":            s.buffer.Len(),
		"pieces":           len(s.latest.Pieces),
		"synthetic_closes": s.latest.SyntheticCloseCount(),
	})
	return s.latest
}

// Latest returns the most recent snapshot. While throttled it may lag the
// buffer by the chunks received since the last parse.
func (s *Session) Latest() *parser.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Buffer returns the accumulated raw text
func (s *Session) Buffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.String()
}

// Streaming reports whether more chunks are accepted
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// Pending reports whether chunks arrived after the latest snapshot
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// reparse must be called with mu held
func (s *Session) reparse() {
	start := s.now()
	msg := parser.ParseWithVocabulary(s.buffer.String(), s.streaming, s.opts.Vocabulary)
	elapsed := s.now().Sub(start)

	s.latest = msg
	s.lastParse = start
	s.dirty = false
	s.opts.Metrics.ObserveParse(msg, elapsed)

	s.opts.Logger.Debug(logger.ComponentParser, logger.CategoryParse, s.opts.RequestID, "Buffer parsed", map[string]interface{}{
		"bytes":     len(msg.RawContent),
		"pieces":    len(msg.Pieces),
		"streaming": msg.IsStreaming,
	})

	if s.opts.OnUpdate != nil {
		s.opts.OnUpdate(msg)
	}
}
