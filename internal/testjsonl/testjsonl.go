// Package testjsonl provides shared fixture builders for session
// transcripts and fenced-file chat text. Used by the source,
// inbox, server and cmd test packages.
package testjsonl

import (
	"encoding/json"
	"strings"
)

// Fence is the markdown code fence marker.
const Fence = "```"

// FencedFile returns a filename line followed by a fenced block,
// the way assistants usually present a file.
func FencedFile(name, lang, body string) string {
	return name + "\n" + Fence + lang + "\n" + body + "\n" + Fence + "\n"
}

// FencedWithInfo returns a fenced block whose opener carries the
// given info string verbatim.
func FencedWithInfo(info, body string) string {
	return Fence + info + "\n" + body + "\n" + Fence + "\n"
}

// ClaudeUserJSON returns a Claude user message as a JSON string.
func ClaudeUserJSON(content, timestamp string) string {
	return mustMarshal(map[string]any{
		"type":      "user",
		"timestamp": timestamp,
		"message": map[string]any{
			"content": content,
		},
	})
}

// ClaudeMetaUserJSON returns a Claude user message with
// optional isMeta and isCompactSummary flags as a JSON string.
func ClaudeMetaUserJSON(
	content, timestamp string, meta, compact bool,
) string {
	m := map[string]any{
		"type":      "user",
		"timestamp": timestamp,
		"message": map[string]any{
			"content": content,
		},
	}
	if meta {
		m["isMeta"] = true
	}
	if compact {
		m["isCompactSummary"] = true
	}
	return mustMarshal(m)
}

// ClaudeAssistantJSON returns a Claude assistant message as a
// JSON string. content may be a string or a slice of blocks.
func ClaudeAssistantJSON(content any, timestamp string) string {
	return mustMarshal(map[string]any{
		"type":      "assistant",
		"timestamp": timestamp,
		"message": map[string]any{
			"content": content,
		},
	})
}

// TextBlock returns a Claude text content block.
func TextBlock(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}

// ToolUseBlock returns a Claude tool_use content block.
func ToolUseBlock(id, name string, input any) map[string]any {
	return map[string]any{
		"type":  "tool_use",
		"id":    id,
		"name":  name,
		"input": input,
	}
}

// CodexMsgJSON returns a Codex response_item message as a JSON
// string.
func CodexMsgJSON(role, text, timestamp string) string {
	contentType := "output_text"
	if role == "user" {
		contentType = "input_text"
	}
	return mustMarshal(map[string]any{
		"type":      "response_item",
		"timestamp": timestamp,
		"payload": map[string]any{
			"type": "message",
			"role": role,
			"content": []map[string]string{
				{"type": contentType, "text": text},
			},
		},
	})
}

// CodexFunctionCallJSON returns a Codex function_call
// response_item as a JSON string.
func CodexFunctionCallJSON(name, timestamp string) string {
	return mustMarshal(map[string]any{
		"type":      "response_item",
		"timestamp": timestamp,
		"payload": map[string]any{
			"type":    "function_call",
			"name":    name,
			"call_id": "call_test",
		},
	})
}

// JoinJSONL joins JSON lines with newlines and appends a
// trailing newline.
func JoinJSONL(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func mustMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
