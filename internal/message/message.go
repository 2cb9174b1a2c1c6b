// Package message defines the clipstash IPC protocol. Each message is one
// newline-delimited JSON object; requests carry an operation, replies are
// RESULT or ERROR.
package message

import (
	"encoding/json"
	"fmt"

	"go.klb.dev/clipstash/internal/entry"
)

// Type identifies the kind of message.
type Type string

const (
	// Requests.
	TypeSubmit Type = "SUBMIT" // record content (and put it on the clipboard)
	TypeRecopy Type = "RECOPY" // put an existing entry back on the clipboard
	TypeList   Type = "LIST"
	TypePin    Type = "PIN" // toggle
	TypeDelete Type = "DELETE"
	TypeClear  Type = "CLEAR"
	TypeSearch Type = "SEARCH"
	TypeStatus Type = "STATUS"

	// Replies.
	TypeResult Type = "RESULT"
	TypeError  Type = "ERROR"
)

// StatusInfo describes the running daemon.
type StatusInfo struct {
	Version   string `json:"version"`
	Backend   string `json:"backend"`
	Total     int    `json:"total"`
	Pinned    int    `json:"pinned"`
	MaxItems  int    `json:"max_items"`
	MaxPinned int    `json:"max_pinned"`
}

// Message is the top-level wire envelope.
type Message struct {
	Type Type `json:"type"`

	// SUBMIT
	Content    string `json:"content,omitempty"`
	FromEditor bool   `json:"from_editor,omitempty"`

	// RECOPY / PIN / DELETE
	ID string `json:"id,omitempty"`

	// CLEAR
	KeepPinned    bool `json:"keep_pinned,omitempty"`
	WipeClipboard bool `json:"wipe_clipboard,omitempty"`

	// SEARCH
	Query string `json:"query,omitempty"`

	// LIST
	Limit int `json:"limit,omitempty"`

	// RESULT
	Pinned  bool          `json:"pinned,omitempty"` // post-toggle pin state
	Entries []entry.Entry `json:"entries,omitempty"`
	Status  *StatusInfo   `json:"status,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	return &m, nil
}

// OK is the plain success reply.
func OK() *Message { return &Message{Type: TypeResult} }

// Err wraps an error into an ERROR reply.
func Err(err error) *Message { return &Message{Type: TypeError, Error: err.Error()} }
