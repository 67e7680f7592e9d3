// Package source supplies the text that files are extracted
// from: the clipboard, plain text files or stdin, and the last
// messages of an agent session transcript.
package source

import "errors"

// RoleType identifies the role of a message sender.
type RoleType string

const (
	RoleUser      RoleType = "user"
	RoleAssistant RoleType = "assistant"
)

// ParseRole validates a role name. The empty string means any
// role.
func ParseRole(s string) (RoleType, error) {
	switch RoleType(s) {
	case "", RoleUser, RoleAssistant:
		return RoleType(s), nil
	}
	return "", errors.New(
		"role must be \"user\" or \"assistant\"",
	)
}

// Message is a single chat message read from a transcript.
type Message struct {
	Ordinal int
	Role    RoleType
	Content string
}

// Options selects messages from a transcript.
type Options struct {
	Last int      // number of trailing messages; <= 0 means 1
	Role RoleType // "" matches every role
}

var (
	// ErrEmpty reports that a source produced no usable text.
	ErrEmpty = errors.New("no messages found or copy failed")

	// ErrClipboardUnavailable reports that the system clipboard
	// could not be read.
	ErrClipboardUnavailable = errors.New("clipboard unavailable")
)
