package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
)

// readClipboard is swapped out in tests.
var readClipboard = clipboard.ReadAll

// Clipboard returns the text currently on the system clipboard.
func Clipboard(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if clipboard.Unsupported {
		return "", ErrClipboardUnavailable
	}
	text, err := readClipboard()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrClipboardUnavailable, err)
	}
	return nonEmpty(text)
}

// Reader reads a whole text blob from r.
func Reader(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return nonEmpty(string(data))
}

// Transcript returns the selected trailing messages of a
// session JSONL file joined by blank lines.
func Transcript(path string, opts Options) (string, error) {
	msgs, err := ParseTranscript(path)
	if err != nil {
		return "", err
	}
	return nonEmpty(JoinMessages(LastMessages(msgs, opts)))
}

// Load reads path as a session transcript when it has a .jsonl
// extension and as plain text otherwise.
func Load(path string, opts Options) (string, error) {
	if IsTranscript(path) {
		return Transcript(path, opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Reader(f)
}

// IsTranscript reports whether path names a session JSONL file.
func IsTranscript(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".jsonl")
}

func nonEmpty(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmpty
	}
	return text, nil
}
