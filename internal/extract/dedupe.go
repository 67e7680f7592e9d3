package extract

import (
	"strconv"
	"strings"
)

// ledger tracks the sanitized paths handed out during a single
// extraction. It is never shared between calls.
type ledger struct {
	seen map[string]int
}

func newLedger() *ledger {
	return &ledger{seen: make(map[string]int)}
}

// assign returns a name for path that has not been handed out
// yet, and whether it had to be renamed. Repeats get "-N"
// inserted before the extension, probing upward from the last
// suffix used for that path.
func (l *ledger) assign(path string) (string, bool) {
	n, ok := l.seen[path]
	if !ok {
		l.seen[path] = 1
		return path, false
	}

	base, ext := splitExt(path)
	for {
		n++
		candidate := base + "-" + strconv.Itoa(n) + ext
		if _, taken := l.seen[candidate]; taken {
			continue
		}
		l.seen[path] = n
		l.seen[candidate] = 1
		return candidate, true
	}
}

// splitExt splits path at the last dot of its final segment.
// A leading dot (".env") is part of the name, not an extension.
func splitExt(path string) (string, string) {
	start := strings.LastIndex(path, "/") + 1
	dot := strings.LastIndex(path[start:], ".")
	if dot <= 0 {
		return path, ""
	}
	return path[:start+dot], path[start+dot:]
}
