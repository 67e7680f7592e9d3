package extract

import "strings"

// Extract returns the files found in text, in strategy
// precedence order and then text order. An empty result means
// nothing safe was found; it is not an error.
func Extract(text string) []FileEntry {
	files, _ := ExtractWithStats(text)
	return files
}

// ExtractWithStats is Extract plus counters describing how many
// candidates each strategy produced and how many were dropped
// or renamed.
func ExtractWithStats(text string) ([]FileEntry, Stats) {
	stats := Stats{Candidates: make(map[Strategy]int, len(Strategies))}

	var candidates []RawCandidate
	for _, def := range Strategies {
		found := def.Scan(text)
		stats.Candidates[def.Name] = len(found)
		candidates = append(candidates, found...)
	}

	names := newLedger()
	files := make([]FileEntry, 0, len(candidates))
	for _, c := range candidates {
		safe, ok := Sanitize(c.Path)
		if !ok {
			stats.Rejected++
			continue
		}
		name, renamed := names.assign(safe)
		if renamed {
			stats.Renamed++
		}
		files = append(files, FileEntry{
			Path:    name,
			Content: strings.TrimRightFunc(c.Content, isSpace),
		})
	}
	stats.Files = len(files)
	return files, stats
}
