package extract

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []FileEntry
	}{
		{
			"line then fence",
			"main.py\n```python\nprint(1)\n```",
			[]FileEntry{{Path: "main.py", Content: "print(1)"}},
		},
		{
			"fence metadata",
			"```js filename=src/app.js\nconsole.log(1)\n```",
			[]FileEntry{{Path: "src/app.js", Content: "console.log(1)"}},
		},
		{
			"bare path in opener",
			"``` lib/util.rb\nputs 1\n```",
			[]FileEntry{{Path: "lib/util.rb", Content: "puts 1"}},
		},
		{
			"same file matched by two strategies",
			"main.py\n``` main.py\nprint(1)\n```",
			[]FileEntry{
				{Path: "main.py", Content: "print(1)"},
				{Path: "main-2.py", Content: "print(1)"},
			},
		},
		{
			"strategy precedence before text order",
			"```ts file=b.ts\nconst b = 1;\n```\n\na.py\n```\nprint(1)\n```",
			[]FileEntry{
				{Path: "a.py", Content: "print(1)"},
				{Path: "b.ts", Content: "const b = 1;"},
			},
		},
		{
			"traversal stripped",
			"../../etc/passwd\n```\nroot:x:0:0\n```",
			[]FileEntry{{Path: "etc/passwd", Content: "root:x:0:0"}},
		},
		{
			"illegal characters replaced",
			"```text filename=weird:name*.txt\nhello world\n```",
			[]FileEntry{{Path: "weird-name-.txt", Content: "hello world"}},
		},
		{
			"leading whitespace kept, trailing stripped",
			"a.txt\n```\n    indented\n\t\n\n```",
			[]FileEntry{{Path: "a.txt", Content: "    indented"}},
		},
		{
			"trailing unicode whitespace stripped",
			"b.txt\n```\nbody\u00a0\u2028\ufeff\n```",
			[]FileEntry{{Path: "b.txt", Content: "body"}},
		},
		{
			"collisions numbered",
			"a/b.txt\n```\none()\n```\n" +
				"a/b.txt\n```\ntwo()\n```\n" +
				"a/b.txt\n```\nthree()\n```",
			[]FileEntry{
				{Path: "a/b.txt", Content: "one()"},
				{Path: "a/b-2.txt", Content: "two()"},
				{Path: "a/b-3.txt", Content: "three()"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}

func TestExtractEmpty(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantTotal    int
		wantRejected int
	}{
		{"empty input", "", 0, 0},
		{"no fences", "just some prose\nover two lines", 0, 0},
		{"unnamed fence", "Some prose.\n\n```\nfoo()\n```\n", 0, 0},
		{"language only", "```go\nfunc main() {}\n```", 0, 0},
		{"all rejected", "..\n```\nrm -rf /\n```", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, stats := ExtractWithStats(tt.text)
			assert.Empty(t, files)
			assert.Equal(t, tt.wantTotal, stats.Total())
			assert.Equal(t, tt.wantRejected, stats.Rejected)
			assert.Equal(t, 0, stats.Files)
		})
	}
}

func TestExtractWithStats(t *testing.T) {
	text := "main.py\n``` main.py\nprint(1)\n```\n\n" +
		"```sh path=../../run.sh\necho hi\n```\n" +
		"```sh path=..\necho skipped\n```"
	files, stats := ExtractWithStats(text)

	require.Len(t, files, 3)
	assert.Equal(t, map[Strategy]int{
		StrategyLineThenFence: 1,
		StrategyFenceMetadata: 2,
		StrategyFenceBarePath: 1,
	}, stats.Candidates)
	assert.Equal(t, 4, stats.Total())
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 1, stats.Renamed)
	assert.Equal(t, 3, stats.Files)
	assert.Equal(t, []string{"main.py", "run.sh", "main-2.py"},
		paths(files))
}

func paths(files []FileEntry) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

// transcripts covers well-formed and hostile inputs for the
// invariant checks below.
var transcripts = []string{
	"main.py\n```python\nprint(1)\n```",
	"## 2. pkg/../../x.go\n```go\npackage x\n```\n" +
		"```go file=/abs/x.go\npackage x\n```\n" +
		"``` x.go\npackage x   \n\n```",
	"```txt name=a.txt\nA\n```\n```txt name=a-2.txt\nB\n```\n" +
		"```txt name=a.txt\nC\n```\n```txt name=a.txt\nD\n```",
	"```ps1 path=..\\..\\win\\evil.ps1\nWrite-Host hi\n```",
	"```x filename=.\\.\\.\nnothing\n```",
	strings.Repeat("f.txt\n```\n  body  \n```\n", 20),
	"unterminated.txt\n```\nno closing fence",
}

func TestExtractInvariants(t *testing.T) {
	for i, text := range transcripts {
		files := Extract(text)
		seen := make(map[string]bool)
		for _, f := range files {
			assert.False(t, seen[f.Path],
				"transcript %d: duplicate path %q", i, f.Path)
			seen[f.Path] = true

			assert.NotEmpty(t, f.Path)
			assert.False(t, strings.HasPrefix(f.Path, "/"),
				"transcript %d: absolute path %q", i, f.Path)
			assert.NotContains(t, f.Path, `\`)
			for _, seg := range strings.Split(f.Path, "/") {
				assert.NotContains(t, []string{"", ".", ".."}, seg,
					"transcript %d: bad segment in %q", i, f.Path)
			}
			assert.Equal(t,
				strings.TrimRightFunc(f.Content, unicode.IsSpace),
				f.Content)
		}
	}
}

func TestExtractIdempotent(t *testing.T) {
	for _, text := range transcripts {
		assert.Equal(t, Extract(text), Extract(text))
	}
}

func TestExtractRepeatedBlocks(t *testing.T) {
	files := Extract(strings.Repeat("f.txt\n```\n  body  \n```\n", 20))
	require.Len(t, files, 20)
	assert.Equal(t, "f.txt", files[0].Path)
	assert.Equal(t, "f-20.txt", files[19].Path)
	for _, f := range files {
		assert.Equal(t, "  body", f.Content)
	}
}
