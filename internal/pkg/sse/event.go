// Package sse writes server-sent events to a gin response.
package sse

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event is one server-sent event
type Event struct {
	Type string      `json:"type"`
	ID   string      `json:"id,omitempty"`
	Data interface{} `json:"data"`
}

// FormatSSE renders the event in text/event-stream framing. Data is JSON
// encoded; a value that cannot be encoded is sent as an error object.
func (e Event) FormatSSE() string {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		payload, _ = json.Marshal(map[string]string{"error": err.Error()})
	}

	var b strings.Builder
	if e.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", e.ID)
	}
	if e.Type != "" {
		fmt.Fprintf(&b, "event: %s\n", e.Type)
	}
	for _, line := range strings.Split(string(payload), "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	return b.String()
}
