package extract

import "strings"

// illegalChars are replaced with a hyphen in every path segment.
var illegalChars = strings.NewReplacer(
	":", "-", `"`, "-", "*", "-", "?", "-",
	"<", "-", ">", "-", "|", "-",
)

// Sanitize turns a raw candidate path into a relative,
// forward-slash path that cannot leave the archive root.
// Empty, "." and ".." segments are dropped rather than
// resolved. Returns false when no segment survives.
func Sanitize(raw string) (string, bool) {
	p := strings.TrimLeft(raw, `/\`)
	p = strings.ReplaceAll(p, `\`, "/")

	var segs []string
	for seg := range strings.SplitSeq(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		segs = append(segs, illegalChars.Replace(seg))
	}
	if len(segs) == 0 {
		return "", false
	}
	return strings.Join(segs, "/"), true
}
