package extract

import (
	"regexp"
	"unicode"
)

const fence = "```"

// space matches what chat pages render as whitespace: RE2's \s
// plus vertical tab, Unicode separators (U+00A0, U+2028, ...)
// and the byte order mark.
const (
	space    = `[\s\x{0B}\p{Z}\x{FEFF}]`
	nonSpace = `[^\s\x{0B}\p{Z}\x{FEFF}]`
)

// isSpace reports whether r is matched by space.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Z, r)
}

// pathToken matches a filename or slash-separated relative path
// built from word characters, dots and hyphens.
const pathToken = `[\w.\-]+(?:/[\w.\-]+)*`

var (
	// A line holding only a path, optionally in backticks. The
	// path may follow a markdown heading, itself optionally
	// numbered ("## 1. a.go", "## 1.a.go"), or a bare "1. "
	// ordinal. A bare ordinal needs a blank so "1.txt" stays a
	// name. The next line opens a fenced block.
	lineThenFenceRe = regexp.MustCompile(
		`(?:^|\n)` + space + `*` +
			`(?:#{1,6}` + space + `*(?:\d+\.` + space + `*)?|\d+\.[ \t]+)?` +
			"`?" + `(` + pathToken + `)` + "`?" +
			space + `*\n` + space + `*` +
			fence + `[^\n]*\n([\s\S]*?)` + fence,
	)

	// An opener whose info string carries filename=, file=,
	// path= or name=.
	fenceMetadataRe = regexp.MustCompile(
		fence + `[^\n]*?\b(?:filename|file|path|name)` +
			space + `*=` + space + `*(` + nonSpace + `+)` +
			`[^\n]*\n([\s\S]*?)` + fence,
	)

	// An opener followed by blanks and a path-like token.
	fenceBarePathRe = regexp.MustCompile(
		fence + `[ \t]+(` + pathToken + `)[^\n]*\n([\s\S]*?)` + fence,
	)
)

// ScanLineThenFence finds fenced blocks preceded by a line that
// names the file.
func ScanLineThenFence(text string) []RawCandidate {
	return scan(lineThenFenceRe, StrategyLineThenFence, text)
}

// ScanFenceMetadata finds fenced blocks whose opener carries a
// key=value filename.
func ScanFenceMetadata(text string) []RawCandidate {
	return scan(fenceMetadataRe, StrategyFenceMetadata, text)
}

// ScanFenceBarePath finds fenced blocks whose opener is followed
// on the same line by a path.
func ScanFenceBarePath(text string) []RawCandidate {
	return scan(fenceBarePathRe, StrategyFenceBarePath, text)
}

// scan collects non-overlapping matches in text order. Every
// pattern captures the path in group 1 and the body in group 2.
func scan(
	re *regexp.Regexp, strategy Strategy, text string,
) []RawCandidate {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]RawCandidate, 0, len(matches))
	for _, m := range matches {
		out = append(out, RawCandidate{
			Strategy: strategy,
			Path:     m[1],
			Content:  m[2],
		})
	}
	return out
}
