package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LokiHook pushes logrus entries to Loki over HTTP
type LokiHook struct {
	pushURL string
	client  *http.Client
	wg      sync.WaitGroup
}

// LokiLogEntry represents a Loki push payload
type LokiLogEntry struct {
	Streams []LokiStream `json:"streams"`
}

type LokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

// NewLokiHook creates a hook pushing to lokiURL
func NewLokiHook(lokiURL string) *LokiHook {
	if lokiURL == "" {
		lokiURL = "http://localhost:3100"
	}
	return &LokiHook{
		pushURL: strings.TrimRight(lokiURL, "/") + "/loki/api/v1/push",
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Levels implements logrus.Hook
func (h *LokiHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook; the push happens asynchronously
func (h *LokiHook) Fire(entry *logrus.Entry) error {
	payload := h.buildEntry(entry)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.send(payload)
	}()
	return nil
}

// Close waits for in-flight pushes and releases idle connections
func (h *LokiHook) Close() {
	h.wg.Wait()
	h.client.CloseIdleConnections()
}

// buildEntry keeps labels low cardinality; everything else goes in the line
func (h *LokiHook) buildEntry(entry *logrus.Entry) LokiLogEntry {
	labels := map[string]string{
		"service": "tagstream",
		"job":     "tagstream",
		"level":   entry.Level.String(),
	}
	if component, ok := entry.Data["component"].(string); ok && component != "" {
		labels["component"] = component
	}

	return LokiLogEntry{
		Streams: []LokiStream{
			{
				Stream: labels,
				Values: [][]string{
					{fmt.Sprintf("%d", entry.Time.UnixNano()), formatReadableLogLine(entry)},
				},
			},
		},
	}
}

// formatReadableLogLine renders a human line followed by the JSON fields
func formatReadableLogLine(entry *logrus.Entry) string {
	parts := []string{
		fmt.Sprintf("[%s]", entry.Time.Format("15:04:05.000")),
		fmt.Sprintf("[%s]", strings.ToUpper(entry.Level.String())),
	}
	if component, ok := entry.Data["component"].(string); ok && component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", component))
	}
	if requestID, ok := entry.Data["request_id"].(string); ok && requestID != "" {
		parts = append(parts, fmt.Sprintf("[req:%s]", requestID))
	}
	parts = append(parts, entry.Message)

	var keyFields []string
	for _, key := range []string{"tag", "state", "reason", "error"} {
		if value, ok := entry.Data[key]; ok {
			keyFields = append(keyFields, fmt.Sprintf("%s=%v", key, value))
		}
	}
	if len(keyFields) > 0 {
		parts = append(parts, "| "+strings.Join(keyFields, " "))
	}
	humanLine := strings.Join(parts, " ")

	if len(entry.Data) == 0 {
		return humanLine
	}
	data := make(map[string]interface{}, len(entry.Data))
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return humanLine
	}
	return humanLine + "\n" + string(jsonData)
}

// send posts to Loki; failures go to stderr
func (h *LokiHook) send(entry LokiLogEntry) {
	jsonData, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal log: %v\n", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, h.pushURL, bytes.NewBuffer(jsonData))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create request: %v\n", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Loki unavailable (%v)\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Loki returned %d\n", resp.StatusCode)
	}
}
