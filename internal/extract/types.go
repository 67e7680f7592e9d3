// Package extract pulls path-named file artifacts out of chat
// transcripts. Three independent scanners look for fenced code
// blocks annotated with a filename; their candidates are
// sanitized into archive-safe relative paths and renamed on
// collision.
package extract

// Strategy identifies the scanner that produced a candidate.
type Strategy string

const (
	StrategyLineThenFence Strategy = "line_then_fence"
	StrategyFenceMetadata Strategy = "fence_metadata"
	StrategyFenceBarePath Strategy = "fence_bare_path"
)

// StrategyDef pairs a strategy with its scanner.
type StrategyDef struct {
	Name Strategy
	Scan func(text string) []RawCandidate
}

// Strategies lists all scanners. Order is precedence order and
// determines the order of the extracted files.
var Strategies = []StrategyDef{
	{Name: StrategyLineThenFence, Scan: ScanLineThenFence},
	{Name: StrategyFenceMetadata, Scan: ScanFenceMetadata},
	{Name: StrategyFenceBarePath, Scan: ScanFenceBarePath},
}

// RawCandidate is a single scanner match before sanitization.
// Path is unvalidated; Content is the verbatim fence body.
type RawCandidate struct {
	Strategy Strategy
	Path     string
	Content  string
}

// FileEntry is a file ready to be written into an archive.
type FileEntry struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Stats counts what happened during one extraction.
type Stats struct {
	Candidates map[Strategy]int `json:"candidates"`
	Rejected   int              `json:"rejected"`
	Renamed    int              `json:"renamed"`
	Files      int              `json:"files"`
}

// Total returns the number of raw candidates across all
// strategies.
func (s Stats) Total() int {
	n := 0
	for _, c := range s.Candidates {
		n += c
	}
	return n
}
