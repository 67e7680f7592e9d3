package source

import (
	"strings"

	"github.com/tidwall/gjson"
)

// textContent extracts the readable text of a Claude message.
// content can be a string or a JSON array of blocks; only text
// blocks carry code fences, so tool and thinking blocks are
// left out.
func textContent(content gjson.Result) string {
	if content.Type == gjson.String {
		return content.Str
	}
	if !content.IsArray() {
		return ""
	}

	var parts []string
	content.ForEach(func(_, block gjson.Result) bool {
		if block.Get("type").Str == "text" {
			if text := block.Get("text").Str; text != "" {
				parts = append(parts, text)
			}
		}
		return true
	})
	return strings.Join(parts, "\n")
}

// codexContent joins all text blocks from a Codex response
// item's content array.
func codexContent(payload gjson.Result) string {
	var texts []string
	payload.Get("content").ForEach(
		func(_, block gjson.Result) bool {
			switch block.Get("type").Str {
			case "input_text", "output_text", "text":
				if t := block.Get("text").Str; t != "" {
					texts = append(texts, t)
				}
			}
			return true
		},
	)
	return strings.Join(texts, "\n")
}
