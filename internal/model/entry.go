package model

import "time"

// RawLine is one line of input before formatting.
type RawLine struct {
	Text   string
	Source string // originating file path, "-" for stdin
}

// LogEntry is a formatted log line.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
	Raw       string         `json:"raw"`                // original line text
	Message   string         `json:"message"`            // template with entity placeholders
	Entities  []string       `json:"entities,omitempty"` // rendered entities, in placeholder order
	Rejected  int            `json:"rejected,omitempty"` // spans kept as literal text
	Record    map[string]any `json:"-"`                  // enclosing JSON record with the message spliced back, nil for plain lines
}
