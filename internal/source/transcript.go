package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

const codexTypeResponseItem = "response_item"

// ParseTranscript reads the chat messages of an agent session
// JSONL file. Claude Code and Codex records are recognized per
// line; other lines and invalid JSON are skipped.
func ParseTranscript(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	msgs, err := parseTranscript(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return msgs, nil
}

func parseTranscript(r io.Reader) ([]Message, error) {
	lr := newLineReader(r, maxLineSize)

	var (
		messages []Message
		ordinal  int
	)
	for {
		line, ok := lr.next()
		if !ok {
			break
		}
		if !gjson.Valid(line) {
			continue
		}

		role, text := messageText(line)
		if role == "" || strings.TrimSpace(text) == "" {
			continue
		}
		messages = append(messages, Message{
			Ordinal: ordinal,
			Role:    role,
			Content: text,
		})
		ordinal++
	}
	if err := lr.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// messageText returns the role and text of a JSONL line, or an
// empty role when the line is not a chat message.
func messageText(line string) (RoleType, string) {
	entryType := gjson.Get(line, "type").Str
	switch entryType {
	case "user", "assistant":
		// System-injected user entries are flagged at the
		// JSONL level.
		if gjson.Get(line, "isMeta").Bool() ||
			gjson.Get(line, "isCompactSummary").Bool() {
			return "", ""
		}
		return RoleType(entryType),
			textContent(gjson.Get(line, "message.content"))

	case codexTypeResponseItem:
		payload := gjson.Get(line, "payload")
		if t := payload.Get("type").Str; t != "" && t != "message" {
			return "", ""
		}
		role := RoleType(payload.Get("role").Str)
		if role != RoleUser && role != RoleAssistant {
			return "", ""
		}
		return role, codexContent(payload)
	}
	return "", ""
}

// LastMessages returns up to opts.Last trailing messages whose
// role matches opts.Role, oldest first.
func LastMessages(msgs []Message, opts Options) []Message {
	n := opts.Last
	if n <= 0 {
		n = 1
	}
	var picked []Message
	for i := len(msgs) - 1; i >= 0 && len(picked) < n; i-- {
		if opts.Role != "" && msgs[i].Role != opts.Role {
			continue
		}
		picked = append(picked, msgs[i])
	}
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked
}

// JoinMessages trims each message and joins the non-empty ones
// with a blank line.
func JoinMessages(msgs []Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if t := strings.TrimSpace(m.Content); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}
