package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"tagstream/logger"
	"tagstream/types"
)

// ReadSSE feeds an OpenAI-style streaming completion into s. It stops at the
// [DONE] marker, at the first chunk carrying a finish_reason, or at EOF, and
// always finishes the session. Malformed events are logged and skipped.
//
// Cancelling ctx is noticed between events; callers reading from a network
// body should close it to unblock a pending read.
func ReadSSE(ctx context.Context, r io.Reader, s *Session) error {
	defer s.Finish()

	requestID := s.opts.RequestID
	log := s.opts.Logger

	scanner := bufio.NewScanner(r)
	// Increase buffer size to handle large streaming chunks
	scanner.Buffer(make([]byte, 64*1024), 1024*1024) // 64KB initial, 1MB max

	events := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == "[DONE]" {
			break
		}

		var chunk types.OpenAIStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			log.Warn(logger.ComponentStream, logger.CategoryWarning, requestID, "Failed to parse streaming chunk", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		events++

		if err := s.Append(chunk.Text()); err != nil {
			return err
		}
		if reason := chunk.FinishReason(); reason != "" {
			log.Debug(logger.ComponentStream, logger.CategoryLifecycle, requestID, "Found final chunk", map[string]interface{}{
				"finish_reason": reason,
				"events":        events,
			})
			break
		}
	}

	if err := scanner.Err(); err != nil {
		log.Error(logger.ComponentStream, logger.CategoryError, requestID, "Streaming error", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("error reading stream: %w", err)
	}
	return ctx.Err()
}

// ReadText feeds raw text into s in chunks of at most chunkSize bytes and
// finishes the session at EOF or on error.
func ReadText(ctx context.Context, r io.Reader, s *Session, chunkSize int) error {
	defer s.Finish()

	if chunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			if appendErr := s.Append(string(buf[:n])); appendErr != nil {
				return appendErr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			s.opts.Logger.Error(logger.ComponentStream, logger.CategoryError, s.opts.RequestID, "Read failed", map[string]interface{}{
				"error": err.Error(),
			})
			return fmt.Errorf("error reading input: %w", err)
		}
	}
}
